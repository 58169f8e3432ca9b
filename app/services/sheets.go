package services

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	sheets "google.golang.org/api/sheets/v4"
	"google.golang.org/api/option"

	"github.com/Ankitrj3/DL-Management-System/app/config"
)

const sheetsAppendRange = "Sheet1!A:F"

// SheetsMirror appends punch rows to a Google Sheet. Strictly
// best-effort: every failure is logged and swallowed, a punch must
// never fail because the spreadsheet is unreachable.
type SheetsMirror struct {
	cfg config.SheetsConfig
	loc *time.Location
}

func NewSheetsMirror(cfg config.SheetsConfig, loc *time.Location) *SheetsMirror {
	return &SheetsMirror{cfg: cfg, loc: loc}
}

// SheetURL returns the browser URL of the mirrored spreadsheet, or ""
// when mirroring is not configured.
func (m *SheetsMirror) SheetURL() string {
	if m.cfg.SheetsID == "" {
		return ""
	}
	return "https://docs.google.com/spreadsheets/d/" + m.cfg.SheetsID + "/edit"
}

// AppendPunch ships one row in the background and returns immediately.
func (m *SheetsMirror) AppendPunch(entry MirrorEntry) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Sheets sync panic recovered: %v", r)
			}
		}()
		if err := m.append(entry); err != nil {
			log.Printf("Sheets sync error: %v", err)
		}
	}()
}

func (m *SheetsMirror) append(entry MirrorEntry) error {
	if !m.cfg.Configured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	conf := &jwt.Config{
		Email: m.cfg.ServiceAccountEmail,
		// Env vars carry the key with escaped newlines.
		PrivateKey: []byte(strings.ReplaceAll(m.cfg.PrivateKey, `\n`, "\n")),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return err
	}

	row := []interface{}{
		entry.Date,
		entry.Name,
		entry.Email,
		strings.ToUpper(string(entry.Type)),
		entry.Time.In(m.loc).Format("15:04:05"),
		strconv.Itoa(entry.Duration) + " mins",
	}

	_, err = svc.Spreadsheets.Values.
		Append(m.cfg.SheetsID, sheetsAppendRange, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}
