package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/emustore/gsup/client"
	"github.com/emustore/gsup/client/cached"
	"github.com/emustore/gsup/cmd/gsup/config"
	"github.com/emustore/gsup/dao"
	daocache "github.com/emustore/gsup/dao/cache"
	"github.com/emustore/gsup/db"
	"github.com/emustore/gsup/signurl"
	"github.com/emustore/gsup/uploader"

	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
)

const (
	defaultConfigFileEnv = "GSUP_CONFIG"
)

var cmds []CreateFunc

type Context struct {
	Client     client.IClient
	SessionDao dao.IUploadSessionDao
	Signer     *signurl.Signer
	Config     *config.Config
}

type CreateFunc func(ctx *Context) *cobra.Command

func register(cr CreateFunc) {
	cmds = append(cmds, cr)
}

// newUploader assembles an uploader on top of the shared client, extra
// options come from per-command flags.
func (c *Context) newUploader(opts ...uploader.Option) (*uploader.Uploader, error) {
	base := []uploader.Option{
		uploader.WithClient(c.Client),
		uploader.WithChunkSize(c.Config.ChunkSize),
		uploader.WithResumableThreshold(c.Config.ResumableThreshold),
		uploader.WithThread(c.Config.Thread),
		uploader.WithSessionDao(c.SessionDao),
	}
	return uploader.New(append(base, opts...)...)
}

func initContext(ctx *Context, cfgs []string) error {
	var c *config.Config
	var err error
	for _, cfg := range cfgs {
		c, err = config.Parse(cfg)
		if err != nil {
			continue
		}
	}
	if err != nil {
		return fmt.Errorf("no valid config file found, last err:%w", err)
	}
	ctx.Config = c
	logger.Init("", c.LogLevel, 0, 0, 0, true)
	if err := os.MkdirAll(filepath.Dir(c.SessionDBFile), 0755); err != nil {
		return fmt.Errorf("create session db dir failed, err:%w", err)
	}
	if err := db.InitDB(c.SessionDBFile); err != nil {
		return fmt.Errorf("init session db failed, err:%w", err)
	}
	ctx.SessionDao = daocache.NewUploadSessionDao(dao.NewUploadSessionDao(db.GetClient()))
	cli, err := client.New(client.WithSchema(c.Schema), client.WithHost(c.Host), client.WithAuth(c.AccessKey, c.SecretKey))
	if err != nil {
		return err
	}
	ctx.Client, err = cached.New(cli)
	if err != nil {
		return err
	}
	ctx.Signer = signurl.New(c.AccessKey, c.SecretKey)
	return nil
}

func NewRoot() *cobra.Command {
	var configFile string
	ctx := &Context{}
	var rootCmd = &cobra.Command{
		Use:   "gsup",
		Short: "Storage emulator CLI tool",
	}
	for _, cr := range cmds {
		rootCmd.AddCommand(cr(ctx))
	}
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		envConfigFile, _ := os.LookupEnv(defaultConfigFileEnv)
		return initContext(ctx, []string{configFile, "/etc/gsup/gsup_config.json", "C:/gsup/gsup_config.json", envConfigFile})
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file")
	return rootCmd
}
