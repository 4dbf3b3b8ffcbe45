// Command fcs is a command line client of the content distribution service. It reads its
// configuration from the FCS_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bitrise-io/go-fcs/config"
	"github.com/bitrise-io/go-fcs/fcs"
	"github.com/bitrise-io/go-fcs/markup"
	"github.com/bitrise-io/go-fcs/signature"
	"github.com/bitrise-io/go-fcs/stepconf"
	"github.com/bitrise-io/go-utils/v2/env"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/spf13/cobra"
)

var (
	logger  = log.NewLogger()
	verbose bool

	rootCmd = &cobra.Command{
		Use:           "fcs",
		Short:         "Content distribution service client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the configuration read from the environment",
		Args:  cobra.NoArgs,
		RunE:  cmdConfig,
	}
	signCmd = &cobra.Command{
		Use:   "sign METHOD PATH",
		Short: "Print the Authorization header of a request",
		Args:  cobra.ExactArgs(2),
		RunE:  cmdSign,
	}
	getAssetCmd = &cobra.Command{
		Use:   "get-asset ASSET_ID",
		Short: "Print an asset document",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdGetAsset,
	}
	uploadCmd = &cobra.Command{
		Use:   "upload PRODUCT_ID PRODUCT_TAG PATTERN",
		Short: "Upload the files matching PATTERN as assets of a product",
		Args:  cobra.ExactArgs(3),
		RunE:  cmdUpload,
	}
	stageCmd = &cobra.Command{
		Use:   "stage FILE",
		Short: "Upload a file to S3 and optionally transfer it as an asset of a product",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdStage,
	}
	convertCmd = &cobra.Command{
		Use:   "convert PRODUCT_ID PRODUCT_TAG SOURCE_ASSET_ID TARGET_TYPE",
		Short: "Request the conversion of an asset",
		Args:  cobra.ExactArgs(4),
		RunE:  cmdConvert,
	}
	downloadCmd = &cobra.Command{
		Use:   "download ASSET_ID DEST",
		Short: "Download an asset",
		Args:  cobra.ExactArgs(2),
		RunE:  cmdDownload,
	}
	licenseCmd = &cobra.Command{
		Use:   "license EPUB",
		Short: "Print the LCP license embedded in a licensed EPUB",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdLicense,
	}
	hashCmd = &cobra.Command{
		Use:   "hash-passphrase PASSPHRASE",
		Short: "Print the LCP hash of a user passphrase",
		Args:  cobra.ExactArgs(1),
		RunE:  cmdHash,
	}

	uploadCfg struct {
		AssetType   string
		Concurrency int
	}
	stageCfg struct {
		Bucket     string
		Key        string
		Region     string
		ProductID  string
		ProductTag string
		AssetType  string
	}
	downloadCfg struct {
		Price string
		User  string
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	uploadCmd.Flags().StringVar(&uploadCfg.AssetType, "type", "", "asset type, derived from the file extension when empty")
	uploadCmd.Flags().IntVar(&uploadCfg.Concurrency, "concurrency", fcs.DefaultUploadConcurrency, "number of files uploaded at the same time")

	stageCmd.Flags().StringVar(&stageCfg.Bucket, "bucket", "", "S3 bucket")
	stageCmd.Flags().StringVar(&stageCfg.Key, "key", "", "S3 object key, the file name when empty")
	stageCmd.Flags().StringVar(&stageCfg.Region, "region", os.Getenv("AWS_REGION"), "S3 region")
	stageCmd.Flags().StringVar(&stageCfg.ProductID, "product-id", "", "transfer the staged file as an asset of this product")
	stageCmd.Flags().StringVar(&stageCfg.ProductTag, "product-tag", "", "tag of the product")
	stageCmd.Flags().StringVar(&stageCfg.AssetType, "type", "", "asset type, derived from the file extension when empty")

	downloadCmd.Flags().StringVar(&downloadCfg.Price, "price", "", "price of the asset")
	downloadCmd.Flags().StringVar(&downloadCfg.User, "user", "", "user the asset is delivered to")

	rootCmd.AddCommand(configCmd, signCmd, getAssetCmd, uploadCmd, stageCmd, convertCmd, downloadCmd, licenseCmd, hashCmd)
}

func loadConfig() (config.Config, error) {
	cfg, err := config.FromEnv(env.NewRepository())
	if err != nil {
		return config.Config{}, err
	}
	logger.EnableDebugLog(verbose || cfg.Debug)
	return cfg, nil
}

func newClient() (*fcs.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return fcs.New(cfg, logger)
}

func product(id, tag string) markup.Value {
	return markup.NewObject(markup.S("id", id), markup.S("tag", tag))
}

func cmdConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	stepconf.Fprint(cmd.OutOrStdout(), cfg)
	return nil
}

func cmdSign(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	signer := signature.Signer{
		BasePath:  cfg.BasePath(),
		AccessKey: cfg.AccessKey,
		Secret:    cfg.AccessSecret.Reveal(),
		ClientID:  cfg.ClientID,
		Logger:    logger,
	}
	fmt.Fprintln(cmd.OutOrStdout(), signer.Authorization(args[0], args[1]))
	return nil
}

func cmdGetAsset(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	asset, err := client.GetAsset(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	doc, err := markup.Encode(asset, "asset", markup.CloudNamespace)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(doc)
	return err
}

func cmdUpload(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	assets, err := client.UploadAssets(cmd.Context(), product(args[0], args[1]), args[2], fcs.AssetType(uploadCfg.AssetType), uploadCfg.Concurrency)
	if err != nil {
		return err
	}

	for _, asset := range assets {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", asset.String("id"), asset.String("tag"))
	}
	return nil
}

func cmdStage(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	uri, err := client.StageToS3(cmd.Context(), fcs.S3StageParams{
		FilePath:        args[0],
		Bucket:          stageCfg.Bucket,
		Key:             stageCfg.Key,
		Region:          stageCfg.Region,
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	})
	if err != nil {
		return err
	}
	logger.Donef("Staged %s as %s", args[0], uri)

	if stageCfg.ProductID == "" {
		fmt.Fprintln(cmd.OutOrStdout(), uri)
		return nil
	}

	asset, err := client.TransferS3Asset(cmd.Context(), product(stageCfg.ProductID, stageCfg.ProductTag), uri, fcs.AssetType(stageCfg.AssetType))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", asset.String("id"), uri)
	return nil
}

func cmdConvert(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	conversion, err := client.ConvertAsset(cmd.Context(), product(args[0], args[1]), args[2], fcs.AssetType(args[3]))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", conversion.String("id"), conversion.String("status-tag"))
	return nil
}

func cmdDownload(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck

	uri, err := client.GetAssetURIByID(cmd.Context(), args[0], downloadCfg.Price, downloadCfg.User)
	if err != nil {
		return err
	}

	dest, err := filepath.Abs(args[1])
	if err != nil {
		return err
	}
	if err := client.DownloadAsset(cmd.Context(), strings.TrimSpace(string(uri)), dest); err != nil {
		return err
	}
	logger.Donef("Downloaded asset %s to %s", args[0], dest)
	return nil
}

func cmdLicense(cmd *cobra.Command, args []string) error {
	epub, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	license, err := fcs.ExtractLicense(epub)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(license)
	return err
}

func cmdHash(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(cmd.OutOrStdout(), fcs.LcpHashPassphrase(args[0]))
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Errorf("%s", err)
		stop()
		os.Exit(1)
	}
}
