package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type abortArgs struct {
	bucket string
	object string
}

func NewAbortCmd(c *Context) *cobra.Command {
	args := &abortArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "abort [file]",
		Short: "Abort the in-progress resumable upload of a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return onRunAbort(ctx, c, args, pos[0])
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "target bucket")
	subc.PersistentFlags().StringVarP(&args.object, "object", "o", "", "object name, defaults to the file base name")
	return subc
}

func onRunAbort(ctx context.Context, c *Context, args *abortArgs, file string) error {
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	up, err := c.newUploader()
	if err != nil {
		return err
	}
	if err := up.Abort(ctx, file, args.bucket, args.object); err != nil {
		return fmt.Errorf("abort upload failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("abort upload succ", zap.String("file", file))
	return nil
}

func init() {
	register(NewAbortCmd)
}
