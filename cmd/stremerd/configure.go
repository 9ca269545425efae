package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Set the login credentials interactively",
	Long: `Set the username and password required for /auth/login and write them
to the config file. Leaving the username empty disables authentication.`,
	RunE: runConfigure,
}

func init() {
	rootCmd.AddCommand(configureCmd)
}

func runConfigure(cmd *cobra.Command, args []string) error {
	usernamePrompt := promptui.Prompt{
		Label:   "Username (empty disables auth)",
		Default: viper.GetString("auth.username"),
	}
	username, err := usernamePrompt.Run()
	if err != nil {
		return handlePromptError(err)
	}

	password := ""
	if username != "" {
		passwordPrompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(input string) error {
				if input == "" {
					return errors.New("password is required")
				}
				return nil
			},
		}
		password, err = passwordPrompt.Run()
		if err != nil {
			return handlePromptError(err)
		}
	}

	path := viper.ConfigFileUsed()
	if path == "" {
		path = "config.yaml"
	}

	settings := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &settings); err != nil {
			return fmt.Errorf("parse existing config: %w", err)
		}
	}

	auth, _ := settings["auth"].(map[string]any)
	if auth == nil {
		auth = map[string]any{}
	}
	auth["enabled"] = username != ""
	auth["username"] = username
	auth["password"] = password
	settings["auth"] = auth

	out, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	if username == "" {
		fmt.Printf("Authentication disabled (%s)\n", path)
	} else {
		fmt.Printf("Credentials updated (%s)\n", path)
	}
	return nil
}

func handlePromptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrAbort) {
		fmt.Println("Cancelled.")
		return nil
	}
	return err
}
