/*
Sqserver starts a sequitur server and begins listening for new connections.

Usage:

	sqserver [flags]
	sqserver [flags] -l [[ADDRESS]:PORT]

Once started, the server listens for HTTP requests and responds using the
JSON API under /api/v1. By default, it listens on localhost:8080; change this
with the --listen/-l flag or the SEQUITUR_LISTEN_ADDRESS environment
variable.

Configuration is resolved in priority order: CLI flags override environment
variables, which override a --config TOML file, which override built-in
defaults.

If a JWT token secret is not given, one is generated and seeded from the
system CSPRNG. As a consequence, in this mode of operation all tokens are
rendered invalid as soon as the server shuts down. This is suitable for
testing, but a secret must be given via flag, environment variable, or config
file in production so that tokens survive a restart.

The flags are:

	-v, --version
		Give the current version of the sequitur server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or :PORT
		format. If not given, falls back to SEQUITUR_LISTEN_ADDRESS, then to
		the config file's "listen" key, then to localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are fewer
		than 32 bytes in the secret, it is repeated until it is; the maximum
		size is 64 bytes. Falls back to SEQUITUR_TOKEN_SECRET, then the
		config file's "token_secret" key. If no secret is resolved from any
		source, a random one is generated.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of: inmem,
		sqlite. inmem has no further params. sqlite needs the path to the
		data directory, e.g. sqlite:path/to/db_dir. Falls back to
		SEQUITUR_DATABASE, then the config file's "db" key, then inmem.

	-c, --config FILE
		Load a TOML config file. Its values take the lowest priority of any
		configuration source.
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/dekarrin/sequitur/internal/version"
	"github.com/dekarrin/sequitur/server"
	"github.com/dekarrin/sequitur/server/config"
	"github.com/dekarrin/sequitur/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "SEQUITUR_LISTEN_ADDRESS"
	EnvSecret = "SEQUITUR_TOKEN_SECRET"
	EnvDB     = "SEQUITUR_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the sequitur server and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
	flagConfig  = pflag.StringP("config", "c", "", "Load a TOML config file.")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("sqserver v%s\n", version.Current)
		return
	}

	if args := pflag.Args(); len(args) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	var fileCfg config.FileConfig
	if *flagConfig != "" {
		var err error
		fileCfg, err = config.LoadFile(*flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not load config file: %s\n", err)
			os.Exit(1)
		}
	}

	// resolve listen address: flag > env > config file > default
	listenAddr := fileCfg.Listen
	if envListen := os.Getenv(EnvListen); envListen != "" {
		listenAddr = envListen
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}

	addr := ""
	port := 8080
	if listenAddr != "" {
		bindParts := strings.SplitN(listenAddr, ":", 2)
		if len(bindParts) != 2 {
			fmt.Fprintf(os.Stderr, "Listen address is not in ADDRESS:PORT or :PORT format.\nDo -h for help.\n")
			os.Exit(1)
		}

		var err error
		addr = bindParts[0]
		port, err = strconv.Atoi(bindParts[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "%q is not a valid port number.\nDo -h for help.\n", bindParts[1])
			os.Exit(1)
		}
	}

	// resolve DB connection string: flag > env > config file > default
	dbConnStr := fileCfg.DB
	if envDB := os.Getenv(EnvDB); envDB != "" {
		dbConnStr = envDB
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}

	var dbCfg config.Database
	if dbConnStr == "" {
		dbCfg = config.Database{Type: config.DatabaseInMemory}
	} else {
		var err error
		dbCfg, err = config.ParseDBConnString(dbConnStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err)
			os.Exit(1)
		}
	}

	// resolve token secret: flag > env > config file > generated
	tokSecStr := fileCfg.TokenSecret
	if envSecret := os.Getenv(EnvSecret); envSecret != "" {
		tokSecStr = envSecret
	}
	if pflag.Lookup("secret").Changed {
		tokSecStr = *flagSecret
	}

	var tokSecret []byte
	if tokSecStr != "" {
		tokSecret = []byte(tokSecStr)

		for len(tokSecret) < config.MinSecretSize {
			doubled := make([]byte, len(tokSecret)*2)
			copy(doubled, tokSecret)
			copy(doubled[len(tokSecret):], tokSecret)
			tokSecret = doubled
		}

		if len(tokSecret) > config.MaxSecretSize {
			fmt.Fprintf(os.Stderr, "Token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(tokSecret), config.MaxSecretSize)
			os.Exit(1)
		}
	} else {
		tokSecret = make([]byte, config.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "Could not generate token secret: %s\n", err)
			os.Exit(1)
		}
		log.Printf("WARN  Using generated token secret; all tokens issued will become invalid at shutdown")
	}

	srvCfg := buildConfig(tokSecret, dbCfg, fileCfg)

	srv, err := server.New(srvCfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err)
	}
	log.Printf("DEBUG server initialized")

	// immediately create the admin user so there's someone to log in as.
	_, err = srv.CreateUser(context.Background(), "admin", "password")
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("ERROR could not create initial admin user: %v", err)
		os.Exit(2)
	}
	if !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("INFO  Added initial admin user with password 'password'...")
	}

	log.Printf("INFO  Starting sequitur server v%s...", version.Current)
	if err := srv.ServeForever(addr, port); err != nil {
		log.Fatalf("FATAL server exited: %s", err)
	}
}

func buildConfig(tokSecret []byte, db config.Database, fileCfg config.FileConfig) config.Config {
	cfg := config.Config{
		TokenSecret:       tokSecret,
		DB:                db,
		UnauthDelayMillis: fileCfg.UnauthDelayMillis,
		MaxPushBytes:      fileCfg.MaxPushBytes,
	}
	return cfg.FillDefaults()
}
