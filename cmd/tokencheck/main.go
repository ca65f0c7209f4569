package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"clientregistry/internal/auth"
	"clientregistry/internal/shared/config"
)

func main() {
	issue := flag.String("issue", "", "mint a token for this subject instead of verifying one")
	roles := flag.String("roles", "USER", "space separated roles for -issue")
	flag.Parse()

	if err := run(*issue, *roles, flag.Args()); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(subject, roles string, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}

	keys, err := auth.LoadKeySet(auth.KeySource{
		PrivateKeyBase64:         cfg.JWT.PrivateKeyBase64,
		PublicKeyBase64:          cfg.JWT.PublicKeyBase64,
		PrivateKeyFile:           cfg.JWT.PrivateKeyFile,
		PublicKeyFile:            cfg.JWT.PublicKeyFile,
		PreviousPublicKeysBase64: cfg.JWT.PreviousPublicKeysBase64,
	})
	if err != nil {
		return err
	}

	if subject != "" {
		return mint(keys, cfg, subject, roles)
	}

	raw, err := readToken(args)
	if err != nil {
		return err
	}
	return verify(keys, cfg, raw)
}

func mint(keys *auth.KeySet, cfg *config.Config, subject, roles string) error {
	p := auth.Principal{ID: subject}
	for _, r := range strings.Fields(roles) {
		role, err := auth.ParseRoleName(r)
		if err != nil {
			return err
		}
		p.Roles = append(p.Roles, role)
	}

	token, err := auth.NewTokenIssuer(keys, cfg.JWT.Issuer).Issue(p)
	if err != nil {
		return err
	}
	color.New(color.FgCyan).Fprintf(os.Stderr, "expires %s (in %ds)\n", token.ExpiresAt.Format(time.RFC3339), token.ExpiresIn)
	fmt.Println(token.AccessToken)
	return nil
}

func verify(keys *auth.KeySet, cfg *config.Config, raw string) error {
	verifier := auth.NewTokenVerifier(keys, cfg.JWT.Issuer, auth.WithClockSkew(cfg.JWT.ClockSkew))
	claims, err := verifier.Verify(raw)
	if err != nil {
		color.Red("REJECTED (%s)\n", auth.RejectionReason(err))
		return err
	}

	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan)

	green.Println("VALID")
	cyan.Print("  subject: ")
	fmt.Println(claims.PrincipalID())
	cyan.Print("  issuer:  ")
	fmt.Println(claims.Issuer)
	cyan.Print("  scope:   ")
	fmt.Println(claims.Scope)
	cyan.Print("  jti:     ")
	fmt.Println(claims.ID)
	if claims.IssuedAt != nil {
		cyan.Print("  issued:  ")
		fmt.Println(claims.IssuedAt.Time.Format(time.RFC3339))
	}
	if claims.ExpiresAt != nil {
		cyan.Print("  expires: ")
		fmt.Printf("%s (%s left)\n", claims.ExpiresAt.Time.Format(time.RFC3339), time.Until(claims.ExpiresAt.Time).Round(time.Second))
	}
	return nil
}

func readToken(args []string) (string, error) {
	if len(args) > 0 {
		return strings.TrimSpace(args[0]), nil
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		if err != nil {
			return "", fmt.Errorf("read token: %w", err)
		}
		return "", errors.New("no token given")
	}
	return strings.TrimPrefix(line, "Bearer "), nil
}
