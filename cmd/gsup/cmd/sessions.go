package cmd

import (
	"context"
	"fmt"

	"github.com/emustore/gsup/entity"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type sessionsArgs struct {
	clean bool
}

func NewSessionsCmd(c *Context) *cobra.Command {
	args := &sessionsArgs{}
	ctx := context.Background()
	subc := &cobra.Command{
		Use:   "sessions",
		Short: "List or clean persisted resumable upload sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return onRunSessions(ctx, c, args)
		},
	}
	subc.PersistentFlags().BoolVar(&args.clean, "clean", false, "abort all persisted sessions on the server and clear the local store")
	return subc
}

func onRunSessions(ctx context.Context, c *Context, args *sessionsArgs) error {
	if args.clean {
		up, err := c.newUploader()
		if err != nil {
			return err
		}
		cnt, err := up.CleanSessions(ctx)
		if err != nil {
			return fmt.Errorf("clean sessions failed, err:%w", err)
		}
		logutil.GetLogger(ctx).Info("clean sessions succ", zap.Int("count", cnt))
		return nil
	}
	return c.SessionDao.ScanSession(ctx, 100, func(ctx context.Context, res []*entity.UploadSessionItem) (bool, error) {
		for _, item := range res {
			fmt.Printf("%s\t%s/%s\t%s/%s\ttask:%s\n", item.Fingerprint, item.Bucket, item.ObjectName,
				humanize.IBytes(uint64(item.BytesSent)), humanize.IBytes(uint64(item.TotalSize)), item.TaskId)
		}
		return true, nil
	})
}

func init() {
	register(NewSessionsCmd)
}
