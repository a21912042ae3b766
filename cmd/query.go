package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhpark-dev/stockrag/internal/config"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Search a running store over HTTP",
	Long:  `Sends a search request to a running stockrag serve instance and prints the ranked matches.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().String("store", "daily", "store to query: daily or followup")
	queryCmd.Flags().String("addr", "", "base URL of the search service (overrides --store port lookup)")
	queryCmd.Flags().Int("top-k", 5, "maximum number of results")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(queryCmd)
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResult struct {
	Rank        int     `json:"rank"`
	Similarity  float32 `json:"similarity"`
	Type        string  `json:"type"`
	Filename    string  `json:"filename"`
	Title       string  `json:"title"`
	TextContent string  `json:"text_content"`
	TextLength  int     `json:"text_length"`
	CreatedAt   string  `json:"created_at"`
}

type queryResponse struct {
	Query      string        `json:"query"`
	Results    []queryResult `json:"results"`
	TotalFound int           `json:"total_found"`
}

func runQuery(cmd *cobra.Command, args []string) error {
	storeFlag, _ := cmd.Flags().GetString("store")
	addr, _ := cmd.Flags().GetString("addr")
	topK, _ := cmd.Flags().GetInt("top-k")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		storeCfg, ok := cfg.Store(config.StoreName(storeFlag))
		if !ok {
			return fmt.Errorf("unknown store %q (expected daily or followup)", storeFlag)
		}
		addr = fmt.Sprintf("http://localhost:%d", storeCfg.Port)
	}

	body, err := json.Marshal(queryRequest{Query: args[0], TopK: topK})
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 60 * time.Second}
	httpResp, err := client.Post(addr+"/search", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("contacting search service at %s: %w\nIs `stockrag serve` running?", addr, err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		var errBody map[string]string
		_ = json.NewDecoder(httpResp.Body).Decode(&errBody)
		return fmt.Errorf("search service returned %d: %s", httpResp.StatusCode, errBody["error"])
	}

	var resp queryResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.TotalFound == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Printf("Found %d results:\n\n", resp.TotalFound)
	for _, r := range resp.Results {
		label := r.Filename
		if r.Title != "" {
			label = fmt.Sprintf("%s (%s)", r.Title, r.Filename)
		}
		fmt.Printf("  %d. [%.1f%%] %s\n", r.Rank, r.Similarity*100, label)
		fmt.Printf("     Type: %s, %d chars\n", r.Type, r.TextLength)
		fmt.Printf("     %s\n\n", truncate(r.TextContent, 120))
	}
	return nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
