package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types

	"github.com/joho/godotenv" // godotenv loads a local .env file outside production
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for costs.
type Config struct {
	Env            string // application environment (e.g. "dev", "prod")
	Port           string // HTTP port to listen on
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	BcryptCost     int    // bcrypt cost for password hashing
	MediaEndpoint  string // object store host:port
	MediaAccessKey string // object store access key
	MediaSecretKey string // object store secret key
	MediaBucket    string // bucket holding uploaded movie images
	MediaPublicURL string // public base URL under which uploaded objects are served
	MediaUseSSL    bool   // whether to talk TLS to the object store
}

// Load reads configuration values from environment variables and returns a
// Config.  Outside production a local .env file is loaded first, so
// developers do not have to export every variable by hand.  Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	if os.Getenv("APP_ENV") != "prod" {
		_ = godotenv.Load() // best effort; absence of .env is fine
	}
	return Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"), // empty allowed
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		BcryptCost:     mustInt("BCRYPT_COST"),
		MediaEndpoint:  must("MEDIA_ENDPOINT"),
		MediaAccessKey: must("MEDIA_ACCESS_KEY"),
		MediaSecretKey: must("MEDIA_SECRET_KEY"),
		MediaBucket:    must("MEDIA_BUCKET"),
		MediaPublicURL: must("MEDIA_PUBLIC_URL"),
		MediaUseSSL:    os.Getenv("MEDIA_USE_SSL") == "true" || os.Getenv("MEDIA_USE_SSL") == "1",
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
