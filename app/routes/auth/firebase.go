package auth

import (
	"context"
	"errors"
	"log"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/api/option"

	"github.com/Ankitrj3/DL-Management-System/app/config"
)

// Identity is the verified profile extracted from a Google sign-in
// token. The rest of the system only needs a stable identifier plus
// display fields.
type Identity struct {
	Email   string
	Name    string
	Picture string
	UID     string
}

var firebaseClient *firebaseauth.Client

// InitFirebase sets up the Firebase Admin verifier when credentials are
// configured. Without them the app runs in dev mode and decodes tokens
// without verification, matching how it is developed locally.
func InitFirebase(cfg config.FirebaseConfig) {
	if cfg.ProjectID == "" && cfg.CredentialsFile == "" {
		log.Println("Firebase Admin not configured - using unverified dev mode")
		return
	}

	ctx := context.Background()
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		log.Printf("Firebase Admin init failed, falling back to dev mode: %v", err)
		return
	}
	client, err := app.Auth(ctx)
	if err != nil {
		log.Printf("Firebase Auth client init failed, falling back to dev mode: %v", err)
		return
	}
	firebaseClient = client
	log.Println("Firebase Admin initialized")
}

// VerifyIDToken resolves an identity from a Firebase ID token.
func VerifyIDToken(ctx context.Context, idToken string) (*Identity, error) {
	if firebaseClient != nil {
		decoded, err := firebaseClient.VerifyIDToken(ctx, idToken)
		if err != nil {
			return nil, err
		}
		return identityFromClaims(decoded.UID, decoded.Claims)
	}
	return decodeUnverified(idToken)
}

// decodeUnverified extracts claims without signature verification.
// Dev mode only.
func decodeUnverified(idToken string) (*Identity, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(idToken, claims); err != nil {
		return nil, errors.New("invalid token format")
	}

	uid, _ := claims["sub"].(string)
	if uid == "" {
		uid, _ = claims["user_id"].(string)
	}
	return identityFromClaims(uid, claims)
}

func identityFromClaims(uid string, claims map[string]interface{}) (*Identity, error) {
	email, _ := claims["email"].(string)
	if email == "" {
		return nil, errors.New("email not found in token")
	}
	name, _ := claims["name"].(string)
	picture, _ := claims["picture"].(string)
	return &Identity{Email: email, Name: name, Picture: picture, UID: uid}, nil
}
