// Command stubdetector serves canned detections over the detection HTTP API.
// It is used for local development and end-to-end tests of the viewer.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", ":8000", "listen address")
	fixtures := flag.String("fixtures", "", "YAML fixture file (built-in set when empty)")
	dev := flag.Bool("dev", false, "development logging")
	flag.Parse()

	log, err := newLogger(*dev)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	fx, err := LoadFixtures(*fixtures)
	if err != nil {
		log.Fatal("load fixtures", zap.Error(err))
	}
	minConf := 0.25
	if v := os.Getenv("CONFIDENCE_THRESHOLD"); v != "" {
		if minConf, err = strconv.ParseFloat(v, 64); err != nil {
			log.Fatal("CONFIDENCE_THRESHOLD", zap.Error(err))
		}
	}
	var origins []string
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins = strings.Split(v, ",")
	}

	if !*dev {
		gin.SetMode(gin.ReleaseMode)
	}
	r := NewRouter(Options{Fixtures: fx, MinConfidence: minConf, AllowedOrigins: origins, Logger: log})
	log.Info("listening", zap.String("addr", *addr), zap.Int("fixtures", len(fx.Detections)), zap.Float64("min_confidence", minConf))
	if err := r.Run(*addr); err != nil {
		log.Fatal("serve", zap.Error(err))
	}
}
