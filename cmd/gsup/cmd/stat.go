package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

type statArgs struct {
	bucket     string
	generation int64
}

func NewStatCmd(c *Context) *cobra.Command {
	args := &statArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "stat [object]",
		Short: "Show object metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return onRunStat(ctx, c, args, pos[0])
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "bucket name")
	subc.PersistentFlags().Int64VarP(&args.generation, "generation", "g", 0, "object generation, 0 for latest")
	return subc
}

func onRunStat(ctx context.Context, c *Context, args *statArgs, object string) error {
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	meta, err := c.Client.StatObject(ctx, args.bucket, object, args.generation)
	if err != nil {
		return fmt.Errorf("stat object failed, err:%w", err)
	}
	raw, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func init() {
	register(NewStatCmd)
}
