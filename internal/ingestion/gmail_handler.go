package ingestion

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/cmuturi/resume-ranker/internal/models"
)

// GmailProgress reports attachment download progress.
type GmailProgress func(current, total int, message string)

// GmailHandler fetches resume attachments from Gmail as an alternative to
// picking files off the local filesystem.
type GmailHandler struct {
	service    *gmail.Service
	files      *FileHandler
	progressCb GmailProgress
}

// NewGmailHandler creates a Gmail handler using OAuth credentials at
// credsPath. Fetched attachments are staged through fh.
func NewGmailHandler(credsPath string, fh *FileHandler) (*GmailHandler, error) {
	return NewGmailHandlerWithCallback(credsPath, fh, nil)
}

// NewGmailHandlerWithCallback is NewGmailHandler with a progress callback.
// Creating the handler triggers the OAuth flow when no cached token exists.
func NewGmailHandlerWithCallback(credsPath string, fh *FileHandler, cb GmailProgress) (*GmailHandler, error) {
	ctx := context.Background()

	b, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, gmail.GmailReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	client, err := getClient(config)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}

	return &GmailHandler{
		service:    srv,
		files:      fh,
		progressCb: cb,
	}, nil
}

// getClient retrieves a token, saves it, then returns the generated client
func getClient(config *oauth2.Config) (*http.Client, error) {
	tokFile := "token.json"
	tok, err := tokenFromFile(tokFile)
	if err != nil {
		tok, err = getTokenFromWeb(config)
		if err != nil {
			return nil, err
		}
		if err := saveToken(tokFile, tok); err != nil {
			log.Printf("Warning: unable to cache oauth token: %v", err)
		}
	}
	return config.Client(context.Background(), tok), nil
}

// getTokenFromWeb requests a token from the web
func getTokenFromWeb(config *oauth2.Config) (*oauth2.Token, error) {
	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Go to the following link in your browser then type the authorization code: \n%v\n", authURL)

	var authCode string
	if _, err := fmt.Scan(&authCode); err != nil {
		return nil, fmt.Errorf("unable to read authorization code: %w", err)
	}

	tok, err := config.Exchange(context.Background(), authCode)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve token from web: %w", err)
	}
	return tok, nil
}

// tokenFromFile retrieves a token from a local file
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}

// saveToken saves a token to a file path
func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// reportProgress calls the progress callback if set.
func (gh *GmailHandler) reportProgress(current, total int, message string) {
	if gh.progressCb != nil {
		gh.progressCb(current, total, message)
	}
}

// FetchResumes downloads PDF attachments from emails matching the subject
// filter and stages them for submission. Returns the staged files in fetch
// order.
func (gh *GmailHandler) FetchResumes(ctx context.Context, subject string) ([]models.ResumeFile, error) {
	user := "me"
	query := fmt.Sprintf("subject:%s has:attachment", subject)

	r, err := gh.service.Users.Messages.List(user).Q(query).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve messages: %w", err)
	}

	if len(r.Messages) == 0 {
		return nil, fmt.Errorf("no messages found with subject: %s", subject)
	}

	var staged []models.ResumeFile

	for i, msg := range r.Messages {
		select {
		case <-ctx.Done():
			return staged, ctx.Err()
		default:
		}

		gh.reportProgress(i+1, len(r.Messages), fmt.Sprintf("Fetching email %d/%d", i+1, len(r.Messages)))

		message, err := gh.service.Users.Messages.Get(user, msg.Id).Context(ctx).Do()
		if err != nil {
			log.Printf("Unable to retrieve message %s: %v", msg.Id, err)
			continue
		}

		senderName := extractSenderName(message)

		for _, part := range message.Payload.Parts {
			if part.Filename == "" || part.Body.AttachmentId == "" {
				continue
			}
			if strings.ToLower(filepath.Ext(part.Filename)) != ".pdf" {
				log.Printf("Skipping non-PDF attachment: %s", part.Filename)
				continue
			}

			attachment, err := gh.service.Users.Messages.Attachments.Get(user, msg.Id, part.Body.AttachmentId).Context(ctx).Do()
			if err != nil {
				log.Printf("Unable to retrieve attachment: %v", err)
				continue
			}

			data, err := base64.URLEncoding.DecodeString(attachment.Data)
			if err != nil {
				log.Printf("Unable to decode attachment: %v", err)
				continue
			}

			// Prefix with the sender so identical attachment names from
			// different applicants do not collide.
			filename := fmt.Sprintf("%s_%s", senderName, part.Filename)

			file, err := gh.files.StageReader(filename, bytes.NewReader(data))
			if err != nil {
				log.Printf("Unable to stage attachment %s: %v", filename, err)
				continue
			}

			staged = append(staged, file)
			log.Printf("Downloaded: %s", filename)
		}
	}

	if len(staged) == 0 {
		return nil, fmt.Errorf("no PDF resumes found in messages with subject: %s", subject)
	}

	return staged, nil
}

// extractSenderName extracts the sender's name from email headers
func extractSenderName(message *gmail.Message) string {
	for _, header := range message.Payload.Headers {
		if header.Name == "From" {
			// Parse "Name <email@example.com>" format
			from := header.Value
			if idx := strings.Index(from, "<"); idx > 0 {
				name := strings.TrimSpace(from[:idx])
				name = strings.ReplaceAll(name, " ", "")
				return name
			}
			// If no name, use email prefix
			if idx := strings.Index(from, "@"); idx > 0 {
				return from[:idx]
			}
			return "Unknown"
		}
	}
	return "Unknown"
}
