package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"comfyui_batch/src/logger"

	"github.com/bytedance/sonic"
)

// storyFile mirrors the on-disk batch description: a list of pages, each
// carrying an image prompt.
type storyFile struct {
	Pages []struct {
		Image string `json:"image"`
	} `json:"pages"`
}

// LoadStoryPrompts collects image prompts from every *.json story file in
// dir, in file name order. A malformed or page-less file is warned about
// and skipped; only an unreadable directory is an error.
func LoadStoryPrompts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read stories directory: %w", err)
	}

	prompts := []string{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("file", entry.Name()).
				Msg("failed to read story file, skipping")
			continue
		}

		var story storyFile
		if err := sonic.Unmarshal(data, &story); err != nil {
			logger.Warn().
				Err(err).
				Str("file", entry.Name()).
				Msg("failed to parse story file, skipping")
			continue
		}

		if len(story.Pages) == 0 {
			logger.Warn().
				Str("file", entry.Name()).
				Msg("story file has no pages, skipping")
			continue
		}

		for _, page := range story.Pages {
			if page.Image != "" {
				prompts = append(prompts, page.Image)
			}
		}
	}

	return prompts, nil
}
