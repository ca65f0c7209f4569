package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"

	"clientregistry/internal/auth"
)

func main() {
	bits := flag.Int("bits", 2048, "RSA modulus size")
	outDir := flag.String("out", "", "also write private.pem and public.pem into this directory")
	flag.Parse()

	if err := run(*bits, *outDir); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(bits int, outDir string) error {
	if bits < auth.MinRSAKeyBits {
		return fmt.Errorf("refusing to generate a %d-bit key, minimum is %d", bits, auth.MinRSAKeyBits)
	}

	key, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	// round-trip through the same checks the server applies at startup
	keys, err := auth.NewKeySet(key, &key.PublicKey)
	if err != nil {
		return err
	}

	privDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("encode private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("encode public key: %w", err)
	}
	privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
	pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprintf(os.Stderr, "Generated %d-bit RSA key, kid %s\n\n", bits, keys.ActiveKID())

	fmt.Printf("JWT_PRIVATE_KEY_BASE64=%s\n", base64.StdEncoding.EncodeToString(privPEM))
	fmt.Printf("JWT_PUBLIC_KEY_BASE64=%s\n", base64.StdEncoding.EncodeToString(pubPEM))

	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o700); err != nil {
			return err
		}
		privPath := filepath.Join(outDir, "private.pem")
		pubPath := filepath.Join(outDir, "public.pem")
		if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
			return err
		}
		if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
			return err
		}
		green.Fprintf(os.Stderr, "\nWrote %s and %s\n", privPath, pubPath)
	}

	yellow.Fprintln(os.Stderr, "\nKeep the private key out of version control.")
	return nil
}
