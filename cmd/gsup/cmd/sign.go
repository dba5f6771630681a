package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type signArgs struct {
	bucket string
	expire int64
}

func NewSignCmd(c *Context) *cobra.Command {
	args := &signArgs{}
	subc := &cobra.Command{
		Use:   "sign [object]",
		Short: "Build a time-limited signed url for an object",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, pos []string) error {
			return onRunSign(c, args, pos[0])
		},
	}
	subc.PersistentFlags().StringVarP(&args.bucket, "bucket", "b", "", "bucket name")
	subc.PersistentFlags().Int64VarP(&args.expire, "expire", "e", 3600, "expiry in seconds")
	return subc
}

func onRunSign(c *Context, args *signArgs, object string) error {
	if len(args.bucket) == 0 {
		return fmt.Errorf("no bucket found")
	}
	base := fmt.Sprintf("%s://%s", c.Config.Schema, c.Config.Host)
	link, err := c.Signer.SignURL(base, args.bucket, object, time.Duration(args.expire)*time.Second)
	if err != nil {
		return fmt.Errorf("sign url failed, err:%w", err)
	}
	fmt.Println(link)
	return nil
}

func init() {
	register(NewSignCmd)
}
