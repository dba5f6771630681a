package cmd

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

type lsArgs struct {
	bucket   string
	prefix   string
	versions bool
}

func NewLsCmd(c *Context) *cobra.Command {
	args := &lsArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "ls",
		Short: "List objects in a bucket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunLs(ctx, c, args)
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "bucket to list")
	subc.PersistentFlags().StringVarP(&args.prefix, "prefix", "p", "", "object name prefix")
	subc.PersistentFlags().BoolVar(&args.versions, "versions", false, "list all generations")
	return subc
}

func onRunLs(ctx context.Context, c *Context, args *lsArgs) error {
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	items, err := c.Client.ListObjects(ctx, args.bucket, args.prefix, args.versions)
	if err != nil {
		return fmt.Errorf("list objects failed, err:%w", err)
	}
	for _, item := range items {
		fmt.Printf("%-40s\t%10s\tgen:%d\n", item.Name, humanize.IBytes(uint64(item.Size)), item.Generation)
	}
	return nil
}

func init() {
	register(NewLsCmd)
}
