package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type rmArgs struct {
	bucket     string
	generation int64
}

func NewRmCmd(c *Context) *cobra.Command {
	args := &rmArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "rm [object]",
		Short: "Delete an object or one of its generations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return onRunRm(ctx, c, args, pos[0])
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "bucket name")
	subc.PersistentFlags().Int64VarP(&args.generation, "generation", "g", 0, "generation to delete, 0 for the live object")
	return subc
}

func onRunRm(ctx context.Context, c *Context, args *rmArgs, object string) error {
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	if err := c.Client.DeleteObject(ctx, args.bucket, object, args.generation); err != nil {
		return fmt.Errorf("delete object failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("delete object succ",
		zap.String("bucket", args.bucket), zap.String("object", object), zap.Int64("generation", args.generation))
	return nil
}

func init() {
	register(NewRmCmd)
}
