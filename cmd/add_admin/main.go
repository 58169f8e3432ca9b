package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"

	"github.com/Ankitrj3/DL-Management-System/app/config"
	"github.com/Ankitrj3/DL-Management-System/app/database"
	"github.com/Ankitrj3/DL-Management-System/app/models"
	"github.com/Ankitrj3/DL-Management-System/app/routes/auth"
)

func main() {
	email := flag.String("email", "", "admin email")
	name := flag.String("name", "", "admin display name")
	password := flag.String("password", "", "admin login password")
	reset := flag.Bool("reset", false, "reset the password of an existing admin instead of creating one")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("Usage: add_admin -email admin@example.com -password secret [-name \"Admin Name\"] [-reset]")
	}

	config.Load()
	db := config.GetDB()
	defer db.Close()

	hashed, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal("Failed to hash password:", err)
	}

	if *reset {
		user, err := database.GetUserByEmail(db, *email)
		if err == sql.ErrNoRows {
			log.Fatalf("No user found for %s", *email)
		}
		if err != nil {
			log.Fatal("Error looking up user:", err)
		}
		if err := database.UpdateUserPassword(db, user.ID, hashed); err != nil {
			log.Fatal("Error resetting password:", err)
		}
		fmt.Printf("Password reset for %s (%s)\n", user.Name, user.Email)
		return
	}

	user := &models.User{
		Email:    *email,
		Name:     *name,
		Password: hashed,
		Role:     models.RoleAdmin,
	}

	if err := database.CreateUser(db, user); err != nil {
		log.Fatal("Error creating admin:", err)
	}

	fmt.Printf("Admin created successfully: %s (%s)\n", user.Name, user.Email)
}
