package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/emustore/gsup/utils"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type getArgs struct {
	bucket     string
	output     string
	generation int64
}

func NewGetCmd(c *Context) *cobra.Command {
	args := &getArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "get [object]",
		Short: "Download an object to a local file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return onRunGet(ctx, c, args, pos[0])
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "bucket name")
	subc.PersistentFlags().StringVarP(&args.output, "output", "o", "", "output file, defaults to the object base name")
	subc.PersistentFlags().Int64VarP(&args.generation, "generation", "g", 0, "generation to fetch, 0 for latest")
	return subc
}

func onRunGet(ctx context.Context, c *Context, args *getArgs, object string) error {
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	dst := args.output
	if len(dst) == 0 {
		dst = filepath.Base(object)
	}
	start := time.Now()
	rc, err := c.Client.DownloadObject(ctx, args.bucket, object, args.generation)
	if err != nil {
		return fmt.Errorf("download object failed, err:%w", err)
	}
	defer rc.Close()
	if err := utils.SafeSaveIOToFile(dst, rc); err != nil {
		return fmt.Errorf("save object failed, err:%w", err)
	}
	logutil.GetLogger(ctx).Info("download object succ",
		zap.String("object", object), zap.String("output", dst), zap.Duration("cost", time.Since(start)))
	return nil
}

func init() {
	register(NewGetCmd)
}
