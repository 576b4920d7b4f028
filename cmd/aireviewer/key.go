package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"aireviewer/internal/services"

	"github.com/spf13/cobra"
)

// keyCmd groups the credential commands
var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage API keys stored in the OS keyring",
	Long: `Store, remove or inspect provider API keys in the OS keyring. The provider is taken
from --provider or the configuration. Environment variables and .env files take
precedence over the keyring.`,
}

var keySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store the API key read from standard input",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		keyring, provider, err := keyringForProvider()
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Enter %s API key: ", provider)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read API key: %w", err)
			}
			return errors.New("no API key given")
		}

		if err := keyring.StoreAPIKey(provider, strings.TrimSpace(scanner.Text())); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Stored %s API key in the OS keyring\n", provider)
		return nil
	},
}

var keyDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Remove the stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		keyring, provider, err := keyringForProvider()
		if err != nil {
			return err
		}

		err = keyring.DeleteAPIKey(provider)
		if errors.Is(err, services.ErrCredentialNotFound) {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s API key stored\n", provider)
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s API key\n", provider)
		return nil
	},
}

var keyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which providers have a stored API key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := initServices(); err != nil {
			return err
		}
		keyring, err := services.GetGlobalKeyringService()
		if err != nil {
			return err
		}

		for _, provider := range services.SupportedProviders {
			status := "stored"
			_, err := keyring.GetAPIKey(provider)
			switch {
			case errors.Is(err, services.ErrCredentialNotFound):
				status = "not stored"
			case err != nil:
				status = "error: " + err.Error()
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", provider, status)
		}
		return nil
	},
}

// keyringForProvider initializes the services and returns the keyring with the
// configured provider.
func keyringForProvider() (*services.KeyringService, string, error) {
	if err := initServices(); err != nil {
		return nil, "", err
	}
	configuration, err := services.GetGlobalConfigurationService()
	if err != nil {
		return nil, "", err
	}
	settings, err := configuration.Settings()
	if err != nil {
		return nil, "", err
	}
	keyring, err := services.GetGlobalKeyringService()
	if err != nil {
		return nil, "", err
	}
	return keyring, settings.Provider, nil
}
