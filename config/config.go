package config

import (
	"flag"
	"net"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	Addr          string
	DBUrl         string
	PublicDir     string
	SubmitTimeout time.Duration
	Debug         bool
}

func ParseFlags() (cfg Config, err error) {
	var host string
	flag.StringVar(&host, "host", "0.0.0.0", "listen host name (default 0.0.0.0)")
	var port uint
	flag.UintVar(&port, "port", 80, "listen port number (default 80)")
	flag.StringVar(&cfg.DBUrl, "db-url", "intake.sqlite", "path to SQLite3 DB file (default intake.sqlite)")
	flag.StringVar(&cfg.PublicDir, "public", "public", "directory of static form-page assets (default public)")
	var timeout uint
	flag.UintVar(&timeout, "submit-timeout", 30, "submission handler timeout in seconds (default 30)")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.SubmitTimeout = time.Duration(timeout) * time.Second

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}
