package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"modelbox/internal/infra"
)

func main() {
	infra.SetDefaultLogger()
	if err := newRootCmd().Execute(); err != nil {
		reportFailure(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var configPath string

	root := &cobra.Command{
		Use:           "modelbox",
		Short:         "Reproducible deployment of the modelbox app to Azure Container Apps",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("resource-group", "g", "", "target resource group (deployment seed)")
	root.PersistentFlags().String("location", infra.DefaultLocation, "Azure region")
	root.PersistentFlags().String("source", infra.DefaultSourceDir, "image build context directory")
	root.PersistentFlags().String("image", "modelbox/app", "image repository name")
	root.PersistentFlags().String("tag", "latest", "image tag")
	root.PersistentFlags().String("model", infra.DefaultModel, "model to select during configuration")
	root.PersistentFlags().Bool("use-azure-cli", false, "authenticate with Azure CLI credentials instead of managed identity")
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional config file")
	cobra.CheckErr(v.BindPFlags(root.PersistentFlags()))

	root.AddCommand(
		newProvisionCmd(v, &configPath),
		newConfigureCmd(v, &configPath),
		newDeployCmd(v, &configPath),
		newNamesCmd(v, &configPath),
	)
	return root
}

func buildDeployer(v *viper.Viper, configPath string) (*infra.Deployer, infra.DeploymentConfig, error) {
	cfg, err := loadConfig(v, configPath)
	if err != nil {
		return nil, infra.DeploymentConfig{}, err
	}
	clients := infra.NewAzureClients(cfg)
	deployer, err := infra.NewDeployer(cfg, clients)
	if err != nil {
		return nil, infra.DeploymentConfig{}, err
	}
	return deployer, cfg, nil
}

func newProvisionCmd(v *viper.Viper, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Declarative phase: create or reconcile the full resource graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			deployer, _, err := buildDeployer(v, *configPath)
			if err != nil {
				return err
			}
			outcome, err := deployer.Provision(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("provisioned %d resources (%d new)\n", len(outcome.Results), outcome.Created())
			return nil
		},
	}
}

func newConfigureCmd(v *viper.Viper, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "configure",
		Short: "Imperative phase: build the image, rotate the credential, update and configure the app",
		RunE: func(cmd *cobra.Command, args []string) error {
			deployer, _, err := buildDeployer(v, *configPath)
			if err != nil {
				return err
			}
			final, err := deployer.Configure(cmd.Context())
			if err != nil {
				return err
			}
			printFinalState(final)
			return nil
		},
	}
}

func newDeployCmd(v *viper.Viper, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Run both phases in order",
		RunE: func(cmd *cobra.Command, args []string) error {
			deployer, _, err := buildDeployer(v, *configPath)
			if err != nil {
				return err
			}
			final, err := deployer.Deploy(cmd.Context())
			if err != nil {
				return err
			}
			printFinalState(final)
			return nil
		},
	}
}

// newNamesCmd prints the names a seed derives to, without touching the
// platform. Useful to inspect what a deployment would be called.
func newNamesCmd(v *viper.Viper, configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "names",
		Short: "Print the resource names derived from the target resource group",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v, *configPath)
			if err != nil {
				return err
			}
			namer, err := infra.NewNamer(cfg.ResourceGroup)
			if err != nil {
				return err
			}
			for _, node := range infra.DeclareGraph(cfg, namer) {
				fmt.Printf("%-18s %s\n", node.Kind, node.Name)
			}
			return nil
		},
	}
}

// printFinalState surfaces the endpoint and the freshly rotated access
// token to the operator. The token is printed once and persisted
// nowhere; every configure run replaces it.
func printFinalState(final *infra.FinalState) {
	fmt.Printf("endpoint:     https://%s\n", final.Endpoint)
	fmt.Printf("access token: %s\n", final.AccessToken)
	fmt.Println("store the token now; re-running configure rotates it")
}

// reportFailure renders the error taxonomy for the operator, naming the
// failing phase element where known.
func reportFailure(err error) {
	var applyErr *infra.PlatformApplyError
	var depErr *infra.DependencyUnresolvedError
	var buildErr *infra.ArtifactBuildError

	switch {
	case errors.As(err, &applyErr):
		fmt.Fprintf(os.Stderr, "declarative phase failed at %s %q: %v\n", applyErr.Kind, applyErr.Name, applyErr.Err)
		fmt.Fprintln(os.Stderr, "previously created resources were left in place")
	case errors.As(err, &depErr):
		fmt.Fprintf(os.Stderr, "imperative phase could not find %s %q; run provision first\n", depErr.Kind, depErr.Missing)
	case errors.As(err, &buildErr):
		fmt.Fprintf(os.Stderr, "image build failed: %v\n%s\n", buildErr.Err, buildErr.Output)
	default:
		fmt.Fprintln(os.Stderr, err)
	}
}
