package cmd

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/williamn/expense-assistant/pkg/models"
)

var (
	attachFiles  []string
	showThinking bool
	saveDir      string
)

var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Send a chat message",
	Long:  `Send a message to the expense assistant, optionally attaching receipt images.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringSliceVarP(&attachFiles, "attach", "a", nil, "image files to attach (repeatable)")
	chatCmd.Flags().BoolVar(&showThinking, "show-thinking", false, "print the assistant's thinking process")
	chatCmd.Flags().StringVar(&saveDir, "save-dir", "", "directory to save returned attachments into")
}

func runChat(cmd *cobra.Command, args []string) error {
	text := ""
	if len(args) > 0 {
		text = args[0]
	}
	if text == "" && len(attachFiles) == 0 {
		return fmt.Errorf("provide a message, an attachment, or both")
	}

	req := models.ChatRequest{
		Text:      text,
		UserID:    userID,
		SessionID: sessionID,
	}

	for _, path := range attachFiles {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		req.Files = append(req.Files, models.ImageData{
			SerializedImage: base64.StdEncoding.EncodeToString(data),
			MIMEType:        http.DetectContentType(data),
		})
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Post(serverURL+"/chat", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var chatResp models.ChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, string(respBody))
	}
	if chatResp.Error != "" {
		return fmt.Errorf("backend error: %s", chatResp.Error)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(chatResp)
	}

	if showThinking && chatResp.ThinkingProcess != "" {
		fmt.Println("--- thinking ---")
		fmt.Println(chatResp.ThinkingProcess)
		fmt.Println("----------------")
	}
	fmt.Println(chatResp.Response)

	if len(chatResp.Attachments) > 0 {
		fmt.Printf("\n%d attachment(s)\n", len(chatResp.Attachments))
		if saveDir != "" {
			if err := saveAttachments(chatResp.Attachments); err != nil {
				return err
			}
		}
	}
	return nil
}

func saveAttachments(attachments []models.ImageData) error {
	if err := os.MkdirAll(saveDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", saveDir, err)
	}
	for i, att := range attachments {
		data, err := base64.StdEncoding.DecodeString(att.SerializedImage)
		if err != nil {
			return fmt.Errorf("failed to decode attachment %d: %w", i, err)
		}
		ext := ".bin"
		switch att.MIMEType {
		case "image/png":
			ext = ".png"
		case "image/jpeg":
			ext = ".jpg"
		case "image/webp":
			ext = ".webp"
		}
		path := filepath.Join(saveDir, fmt.Sprintf("attachment-%d%s", i, ext))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		fmt.Printf("saved %s\n", path)
	}
	return nil
}
