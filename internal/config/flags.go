package config

import (
	"flag"
	"os"
	"time"

	"github.com/dkrasnovs/microblog/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-s string   cookie signing secret
//	-w int      bcrypt cost for password/token digests
//	-r int      remember cookie validity, hours
//	-t int      reset token validity, minutes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components. Duration
// flags are accepted as integers and converted to time.Duration values.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-s", "-w", "-r", "-t", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "cookie signing secret")
	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt cost")

	rememberCookieValidity := fs.Int("r", int(config.RememberCookieValidity.Hours()), "remember_cookie_validity (in hours)")
	resetTokenValidity := fs.Int("t", int(config.ResetTokenValidity.Minutes()), "reset_token_validity (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.RememberCookieValidity = time.Duration(*rememberCookieValidity) * time.Hour
	config.ResetTokenValidity = time.Duration(*resetTokenValidity) * time.Minute
}
