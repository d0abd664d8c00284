package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/stemsi/examportal-backend/internal/bootstrap"
	"github.com/stemsi/examportal-backend/internal/config"
	"github.com/stemsi/examportal-backend/internal/logger"
	"github.com/stemsi/examportal-backend/internal/model"
	"golang.org/x/term"
)

func main() {
	var name, email string
	flag.StringVar(&name, "name", "", "Display name of the administrator")
	flag.StringVar(&email, "email", "", "Sign-in email of the administrator")
	flag.Parse()

	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	// ─── Open Gateways ─────────────────────────────────────────────────
	backends, err := bootstrap.Open(ctx, cfg, nil, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open backends")
	}
	defer backends.Close()

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	bold := color.New(color.Bold)
	failf := color.New(color.FgRed).PrintfFunc()

	bold.Println("=== Create Administrator ===")

	if name == "" {
		fmt.Print("Enter Name: ")
		name, _ = reader.ReadString('\n')
		name = strings.TrimSpace(name)
	}
	if name == "" {
		failf("Error: Name is required\n")
		os.Exit(1)
	}

	if email == "" {
		fmt.Print("Enter Email: ")
		email, _ = reader.ReadString('\n')
		email = strings.TrimSpace(email)
	}
	if email == "" {
		failf("Error: Email is required\n")
		os.Exit(1)
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		failf("Error reading password: %v\n", err)
		os.Exit(1)
	}
	password := string(bytePassword)
	if len(password) < 6 {
		failf("Error: Password must be at least 6 characters\n")
		os.Exit(1)
	}

	// ─── Logic ─────────────────────────────────────────────────────────
	// The admin flag travels as a signed claim; the role record only
	// carries the display name for listings.
	uid, err := backends.Identity.CreateAccount(ctx, email, password, true)
	if err != nil {
		log.Fatal().Err(err).Str("email", email).Msg("Failed to create account")
	}

	rec := &model.UserRecord{UID: uid, Role: model.RoleAdmin, Name: name, Email: email}
	if err := backends.Store.Users.Put(ctx, rec); err != nil {
		log.Fatal().Err(err).Str("uid", uid).Msg("Failed to write role record")
	}

	color.Green("\nSuccess! Administrator '%s' (%s) created with UID: %s", name, email, uid)
}
