package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type versionsArgs struct {
	bucket string
}

func NewVersionsCmd(c *Context) *cobra.Command {
	args := &versionsArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "versions [object]",
		Short: "List generations of one object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return onRunVersions(ctx, c, args, pos[0])
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "bucket name")
	return subc
}

func onRunVersions(ctx context.Context, c *Context, args *versionsArgs, object string) error {
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	items, err := c.Client.ListObjects(ctx, args.bucket, object, true)
	if err != nil {
		return fmt.Errorf("list versions failed, err:%w", err)
	}
	for _, item := range items {
		if item.Name != object {
			continue
		}
		fmt.Printf("gen:%d\tmetagen:%d\t%10s\t%s\n", item.Generation, item.Metageneration, humanize.IBytes(uint64(item.Size)), item.Updated)
	}
	return nil
}

func init() {
	register(NewVersionsCmd)
}
