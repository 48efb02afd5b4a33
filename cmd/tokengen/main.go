// Package main issues identity tokens for local testing of the validation
// endpoint, and revokes them through the Redis deny list.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	jwttoken "greenlight/internal/jwt_token"
	"greenlight/pkg/secrets"
)

// devSigningKey matches config.FromEnv when JWT_SIGNING_KEY is not set.
const devSigningKey = "dev-secret-key-change-in-production"

type tokenOutput struct {
	Token     string            `json:"token"`
	ExpiresIn string            `json:"expires_in"`
	Claims    map[string]string `json:"claims"`
	Usage     map[string]string `json:"usage"`
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "identity":
		err = identity(os.Args[2:])
	case "revoke":
		err = revoke(os.Args[2:])
	case "secret":
		err = secret()
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - identity tokens for the greenlight validation API

Usage:
  tokengen identity [flags]   issue a token for POST /greenlight/validate
  tokengen revoke -jti ID     add a token ID to the Redis deny list
  tokengen secret             print a random value for JWT_SIGNING_KEY or ADMIN_API_TOKEN

Examples:
  tokengen identity -given Erika -family Mustermann -dob 1964-08-12 -country AT
  tokengen identity -region W -ttl 10m -json
  REDIS_URL=redis://localhost:6379 tokengen revoke -jti 4f1c... -ttl 1h

JWT_SIGNING_KEY selects the signing key; the development default is used otherwise.`)
}

func identity(args []string) error {
	fs := flag.NewFlagSet("identity", flag.ExitOnError)
	subject := fs.String("sub", "", "Subject. Generated if empty.")
	given := fs.String("given", "Erika", "Given name")
	family := fs.String("family", "Mustermann", "Family name")
	dob := fs.String("dob", "1964-08-12", "Date of birth (YYYY, YYYY-MM or YYYY-MM-DD)")
	country := fs.String("country", "", "Jurisdiction country (ISO 3166 alpha-2)")
	region := fs.String("region", "", "Jurisdiction region")
	ttl := fs.Duration("ttl", time.Hour, "Token time-to-live")
	asJSON := fs.Bool("json", false, "Output as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *subject == "" {
		*subject = uuid.NewString()
	}

	svc := jwttoken.NewJWTService(signingKey(), jwttoken.DefaultIssuer, jwttoken.DefaultAudience, *ttl)
	token, err := svc.GenerateIdentityToken(context.Background(), jwttoken.Identity{
		Subject:    *subject,
		GivenName:  *given,
		FamilyName: *family,
		Birthdate:  *dob,
		Country:    strings.ToUpper(*country),
		Region:     *region,
	})
	if err != nil {
		return err
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		return err
	}

	if *asJSON {
		return printJSON(tokenOutput{
			Token:     token,
			ExpiresIn: ttl.String(),
			Claims: map[string]string{
				"sub":         claims.Subject,
				"given_name":  claims.GivenName,
				"family_name": claims.FamilyName,
				"birthdate":   claims.Birthdate,
				"country":     claims.Country,
				"region":      claims.Region,
				"jti":         claims.ID,
			},
			Usage: map[string]string{"header": "Authorization: Bearer <token>"},
		})
	}

	fmt.Println("Identity Token (JWT)")
	fmt.Println("====================")
	fmt.Printf("Subject:     %s\n", claims.Subject)
	fmt.Printf("Name:        %s %s\n", claims.GivenName, claims.FamilyName)
	fmt.Printf("Birthdate:   %s\n", claims.Birthdate)
	if claims.Country != "" {
		fmt.Printf("Country:     %s %s\n", claims.Country, claims.Region)
	}
	fmt.Printf("JTI:         %s\n", claims.ID)
	fmt.Printf("Expires In:  %s\n", *ttl)
	fmt.Println()
	fmt.Println(token)
	fmt.Println()
	fmt.Println(`curl -H "Authorization: Bearer <token>" -d '{"hcert":"HC1:..."}' http://localhost:8080/greenlight/validate`)
	return nil
}

func revoke(args []string) error {
	fs := flag.NewFlagSet("revoke", flag.ExitOnError)
	jti := fs.String("jti", "", "Token ID to revoke")
	ttl := fs.Duration("ttl", time.Hour, "How long to keep the entry; use the token's remaining lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	url := os.Getenv("REDIS_URL")
	if url == "" {
		return fmt.Errorf("REDIS_URL is required")
	}
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return err
	}
	client := goredis.NewClient(opts)
	defer client.Close() //nolint:errcheck // CLI exit path

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := jwttoken.NewRevocationList(client).Revoke(ctx, *jti, *ttl); err != nil {
		return err
	}
	fmt.Printf("revoked %s for %s\n", *jti, *ttl)
	return nil
}

func secret() error {
	s, err := secrets.Generate()
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}

func signingKey() string {
	if k := os.Getenv("JWT_SIGNING_KEY"); k != "" {
		return k
	}
	return devSigningKey
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
