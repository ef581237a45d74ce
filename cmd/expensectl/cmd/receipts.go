package cmd

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/williamn/expense-assistant/pkg/models"
)

var receiptsCmd = &cobra.Command{
	Use:   "receipts",
	Short: "Manage stored receipts",
	Long:  `Commands for listing, inspecting and deleting receipts stored by the expense assistant.`,
}

var receiptsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List receipts",
	Long:  `List receipt records for a user, optionally narrowed to one session.`,
	RunE:  runReceiptsList,
}

var receiptsGetCmd = &cobra.Command{
	Use:   "get <receipt-id>",
	Short: "Show one receipt record",
	Args:  cobra.ExactArgs(1),
	RunE:  runReceiptsGet,
}

var receiptsDeleteCmd = &cobra.Command{
	Use:   "delete <receipt-id>",
	Short: "Delete a receipt and its stored image",
	Args:  cobra.ExactArgs(1),
	RunE:  runReceiptsDelete,
}

var receiptsImageCmd = &cobra.Command{
	Use:   "image <receipt-id> <output-file>",
	Short: "Download a receipt image",
	Args:  cobra.ExactArgs(2),
	RunE:  runReceiptsImage,
}

var listAllSessions bool

func init() {
	rootCmd.AddCommand(receiptsCmd)
	receiptsCmd.AddCommand(receiptsListCmd)
	receiptsCmd.AddCommand(receiptsGetCmd)
	receiptsCmd.AddCommand(receiptsDeleteCmd)
	receiptsCmd.AddCommand(receiptsImageCmd)

	receiptsListCmd.Flags().BoolVar(&listAllSessions, "all-sessions", false, "list receipts across all sessions of the user")
}

func httpGet(path string) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Get(serverURL + path)
	if err != nil {
		return nil, fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

func runReceiptsList(cmd *cobra.Command, args []string) error {
	query := url.Values{"user_id": {userID}}
	if !listAllSessions {
		query.Set("session_id", sessionID)
	}

	body, err := httpGet("/receipts?" + query.Encode())
	if err != nil {
		return err
	}

	var receipts []models.Receipt
	if err := json.Unmarshal(body, &receipts); err != nil {
		return fmt.Errorf("failed to decode receipts: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(receipts)
	}

	if len(receipts) == 0 {
		fmt.Println("No receipts found")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("ID", "Session", "Type", "Size", "Stored")
	for _, r := range receipts {
		table.Append(
			r.ID,
			r.SessionID,
			r.MIMEType,
			fmt.Sprintf("%d B", r.SizeBytes),
			r.StoredAt.Local().Format("2006-01-02 15:04"),
		)
	}
	table.Render()
	return nil
}

func runReceiptsGet(cmd *cobra.Command, args []string) error {
	body, err := httpGet("/receipts/" + args[0])
	if err != nil {
		return err
	}

	var r models.Receipt
	if err := json.Unmarshal(body, &r); err != nil {
		return fmt.Errorf("failed to decode receipt: %w", err)
	}

	if outputFormat == "json" {
		return json.NewEncoder(os.Stdout).Encode(r)
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Property", "Value")
	table.Append([]string{"ID", r.ID})
	table.Append([]string{"User", r.UserID})
	table.Append([]string{"Session", r.SessionID})
	table.Append([]string{"MIME type", r.MIMEType})
	table.Append([]string{"Size", fmt.Sprintf("%d B", r.SizeBytes)})
	table.Append([]string{"Stored", r.StoredAt.Local().Format(time.RFC1123)})
	table.Render()
	return nil
}

func runReceiptsDelete(cmd *cobra.Command, args []string) error {
	req, err := http.NewRequest(http.MethodDelete, serverURL+"/receipts/"+args[0], nil)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("delete failed with status %d: %s", resp.StatusCode, string(body))
	}

	fmt.Printf("Receipt %s deleted\n", args[0])
	return nil
}

func runReceiptsImage(cmd *cobra.Command, args []string) error {
	body, err := httpGet("/receipts/" + args[0] + "/image")
	if err != nil {
		return err
	}

	var img models.ImageData
	if err := json.Unmarshal(body, &img); err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(img.SerializedImage)
	if err != nil {
		return fmt.Errorf("failed to decode image data: %w", err)
	}

	if err := os.WriteFile(args[1], data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", args[1], err)
	}
	fmt.Printf("Wrote %s (%d bytes, %s)\n", args[1], len(data), img.MIMEType)
	return nil
}
