package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/emustore/gsup/uploader"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type uploadArgs struct {
	bucket       string
	object       string
	meta         map[string]string
	skipExisting bool
}

func NewUploadCmd(c *Context) *cobra.Command {
	args := &uploadArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "upload [files...]",
		Short: "Upload files to a bucket",
		RunE: func(cmd *cobra.Command, files []string) error {
			return onRunUpload(ctx, c, args, files)
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "target bucket")
	subc.PersistentFlags().StringVarP(&args.object, "object", "o", "", "object name, defaults to the file base name")
	subc.PersistentFlags().StringToStringVarP(&args.meta, "meta", "m", nil, "custom object metadata, key=value")
	subc.PersistentFlags().BoolVar(&args.skipExisting, "skip-existing", false, "skip files whose object already exists with the same size")
	return subc
}

func onRunUpload(ctx context.Context, c *Context, args *uploadArgs, files []string) error {
	if len(files) == 0 {
		return fmt.Errorf("no upload file found")
	}
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	if len(args.object) > 0 && len(files) > 1 {
		return fmt.Errorf("object name only applies to a single file")
	}
	up, err := c.newUploader(
		uploader.WithMetadata(args.meta),
		uploader.WithSkipExisting(args.skipExisting),
	)
	if err != nil {
		return err
	}
	start := time.Now()
	onProgress := func(src string, p uploader.UploadProgress) {
		logutil.GetLogger(ctx).Debug("upload progress",
			zap.String("file", src),
			zap.Int("percentage", p.Percentage),
			zap.String("sent", humanize.IBytes(uint64(p.BytesSent))),
			zap.String("total", humanize.IBytes(uint64(p.TotalBytes))))
	}
	if len(files) == 1 {
		meta, err := up.UploadFile(ctx, files[0], args.bucket, args.object, func(p uploader.UploadProgress) {
			onProgress(files[0], p)
		})
		if err != nil {
			return fmt.Errorf("upload file failed, err:%w", err)
		}
		logutil.GetLogger(ctx).Info("upload file succ",
			zap.String("object", meta.Name), zap.Int64("generation", meta.Generation),
			zap.String("size", humanize.IBytes(uint64(meta.Size))), zap.Duration("cost", time.Since(start)))
		return nil
	}
	rs, err := up.UploadMany(ctx, files, args.bucket, onProgress)
	if err != nil {
		return fmt.Errorf("upload files failed, err:%w", err)
	}
	for src, meta := range rs {
		logutil.GetLogger(ctx).Info("upload file succ",
			zap.String("file", src), zap.String("object", meta.Name), zap.Int64("generation", meta.Generation))
	}
	logutil.GetLogger(ctx).Info("batch upload finished", zap.Int("count", len(rs)), zap.Duration("cost", time.Since(start)))
	return nil
}

func init() {
	register(NewUploadCmd)
}
