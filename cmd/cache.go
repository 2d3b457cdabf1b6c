package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maleon-core-poc/server/internal/cache"
)

func newCacheCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the reply cache",
	}
	cmd.AddCommand(
		newCacheStatsCmd(opts),
		newCacheMatchCmd(opts),
	)
	return cmd
}

// openCache loads the cache from the configured store without touching Gemini.
func openCache(cmd *cobra.Command, opts *rootOptions) (*cache.Cache, func(), error) {
	cfg, err := loadConfig(opts.envFile)
	if err != nil {
		return nil, nil, err
	}
	rdb, err := connectRedis(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, err
	}
	c, err := cache.New(cmd.Context(), newCacheStore(cfg, rdb), cfg.Cache)
	closeAll := func() {
		if rdb != nil {
			_ = rdb.Close()
		}
	}
	if err != nil {
		closeAll()
		return nil, nil, fmt.Errorf("load reply cache: %w", err)
	}
	return c, closeAll, nil
}

func newCacheStatsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show how many keys and replies the cache holds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, done, err := openCache(cmd, opts)
			if err != nil {
				return err
			}
			defer done()
			return writeStats(cmd, c, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func writeStats(cmd *cobra.Command, c *cache.Cache, asJSON bool) error {
	st := c.Stats()
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(st)
	}
	_, err := fmt.Fprintf(cmd.OutOrStdout(), "keys: %d\nreplies: %d\n", st.Keys, st.Replies)
	return err
}

func newCacheMatchCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "match <text>",
		Short: "Show which cached key an utterance would hit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, done, err := openCache(cmd, opts)
			if err != nil {
				return err
			}
			defer done()
			return writeMatch(cmd, c, strings.Join(args, " "))
		},
	}
}

func writeMatch(cmd *cobra.Command, c *cache.Cache, text string) error {
	out := cmd.OutOrStdout()
	hit := c.Lookup(text)
	if !hit.Matched() {
		_, err := fmt.Fprintf(out, "no match (best score %d)\n", hit.Score)
		return err
	}
	if _, err := fmt.Fprintf(out, "key: %s\nscore: %d\n", hit.Key, hit.Score); err != nil {
		return err
	}
	for i, r := range c.Replies(hit.Key) {
		if _, err := fmt.Fprintf(out, "%d. %s\n", i+1, r.Text); err != nil {
			return err
		}
	}
	return nil
}
