package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/happytree/happytree/internal/photo"
	"github.com/happytree/happytree/internal/session"
)

var askPhotoPath string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the botanist a single question",
	Long: `Ask the botanist a single question from the command line, without
starting the web interface. Attach a plant photo with --photo:

  happytree ask how often should I water a monstera
  happytree ask --photo leaf.jpg what is wrong with this plant`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askPhotoPath, "photo", "",
		"path to a plant photo to attach ("+strings.Join(photo.AcceptedExtensions(), ", ")+")")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	attachment, err := loadPhoto(askPhotoPath)
	if err != nil {
		return err
	}

	sess := session.New(agentFactory(cfg, logger), logger)

	question := strings.Join(args, " ")
	result, err := sess.Turn(context.Background(), cfg.APIKey, question, attachment)
	if err != nil {
		return fmt.Errorf("asking: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Assistant.Content)
	return nil
}

// loadPhoto reads and encodes a photo from disk. An empty path means no
// attachment.
func loadPhoto(path string) (*photo.Attachment, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading photo: %w", err)
	}
	att, err := photo.Encode(filepath.Base(path), data)
	if err != nil {
		return nil, fmt.Errorf("encoding photo %s: %w", filepath.Base(path), err)
	}
	return att, nil
}
