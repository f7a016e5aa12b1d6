package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/flagx"
)

var serverFlags = []string{
	"-a", "-r", "-d", "-k", "-s", "-f", "-m",
	"-u", "-p", "-b", "-g", "-e",
	"-q", "-t", "-w", "-y", "-l",
}

// parseEnv applies environment overrides. Only secrets and the DSN are read
// from the environment.
func parseEnv(config *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvEncryptionKey)); v != "" {
		config.EncryptionKeyHex = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDatabaseDSN)); v != "" {
		config.DatabaseDSN = v
	}
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-r string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN, or "memory"
//	-k string   hex encryption key
//	-s string   storage backend: fs or s3
//	-f string   storage base directory
//	-m int      media size limit, bytes
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//	-q string   comma-separated Kafka brokers
//	-t string   Kafka topic
//	-w string   sweep cron schedule
//	-y int      sweep grace period, minutes
//	-l string   log level
func parseFlags(config *Config) {
	parseFlagArgs(config, os.Args[1:])
}

func parseFlagArgs(config *Config, osArgs []string) {
	args := flagx.FilterArgs(osArgs, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "HTTP address and port")
	fs.StringVar(&config.GRPCAddr, "r", config.GRPCAddr, "gRPC address and port")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.EncryptionKeyHex, "k", config.EncryptionKeyHex, "encryption key (hex)")
	fs.StringVar(&config.StorageBackend, "s", config.StorageBackend, "storage backend (fs|s3)")
	fs.StringVar(&config.StorageBaseDir, "f", config.StorageBaseDir, "storage base directory")
	fs.Int64Var(&config.MaxMediaBytes, "m", config.MaxMediaBytes, "media size limit in bytes")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	brokers := fs.String("q", strings.Join(config.KafkaBrokers, ","), "Kafka brokers, comma separated")
	fs.StringVar(&config.KafkaTopic, "t", config.KafkaTopic, "Kafka topic")
	fs.StringVar(&config.SweepSchedule, "w", config.SweepSchedule, "sweep schedule (cron spec)")
	grace := fs.Int("y", int(config.SweepGracePeriod.Minutes()), "sweep grace period (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.KafkaBrokers = splitList(*brokers)
	config.SweepGracePeriod = time.Duration(*grace) * time.Minute
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
