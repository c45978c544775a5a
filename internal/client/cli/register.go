package cli

import (
	"context"
	"fmt"

	"github.com/iudanet/offlinedesk/internal/validation"
)

func (c *Cli) runRegister(ctx context.Context, args []string) error {
	role := validation.RoleMember
	if len(args) > 0 {
		role = args[0]
	}
	if err := validation.ValidateRole(role); err != nil {
		return usageError("%v", err)
	}

	c.io.Println("=== Registration ===")
	c.io.Println()

	username, err := c.io.ReadInput("Username: ")
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}

	interactive := c.interactivePassword()
	password, err := c.getPassword(fmt.Sprintf("Password (min %d chars): ", validation.MinPasswordLen))
	if err != nil {
		return err
	}

	if interactive {
		confirm, err := c.io.ReadPassword("Confirm password: ")
		if err != nil {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		if password != confirm {
			return fmt.Errorf("passwords do not match")
		}
	}

	c.io.Println("Registering user...")

	userID, err := c.app.Auth.Register(ctx, username, password, role)
	if err != nil {
		return err
	}

	c.io.Println()
	c.io.Println("✓ Registration successful!")
	c.io.Printf("User ID: %s\n", userID)
	c.io.Printf("Username: %s\n", username)
	c.io.Printf("Role: %s\n", role)
	c.io.Println()
	c.io.Println("Please run 'offlinedesk login' to start using the service.")
	return nil
}

// interactivePassword сообщает, будет ли пароль запрошен с терминала
func (c *Cli) interactivePassword() bool {
	return lookupEnv(PasswordEnv) == "" && c.passwords.FromFile == "" && c.passwords.FromArgs == ""
}
