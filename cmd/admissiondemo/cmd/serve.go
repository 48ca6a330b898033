/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cmd

import (
	"fmt"
	"net/http"

	"github.com/matchgate/admission/admission"
	"github.com/matchgate/admission/examples/httpserver"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	addr        string
	metricsAddr string
	slowMax     int
	fastMax     int
	explain     bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve examples/httpserver behind the admission engine",
	Run: func(_ *cobra.Command, _ []string) {
		configureVerbosity()
		runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	serveCmd.Flags().StringVar(&metricsAddr, "metricsaddr", "", "address to serve /metrics on; empty disables metrics")
	serveCmd.Flags().IntVar(&slowMax, "slowmax", 1, "concurrency bound for /api/slow")
	serveCmd.Flags().IntVar(&fastMax, "fastmax", 5, "concurrency bound for every other /api/* path")
	serveCmd.Flags().BoolVar(&explain, "explain", false, "print the admission table and exit without serving")
}

func runServe() {
	table, err := httpserver.NewTable(httpserver.TableConfig{SlowMax: slowMax, FastAPIMax: fastMax})
	if err != nil {
		log.Fatalf("building admission table: %v", err)
	}

	if explain {
		fmt.Print(admission.Explain(table))
		return
	}

	var opts []admission.Option[httpserver.State]
	if metricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, admission.WithStats[httpserver.State](admission.NewPrometheusStats(reg, "admissiondemo")))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
			log.Infof("serving metrics on %s", metricsAddr)
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				log.Errorf("metrics server: %v", err)
			}
		}()
	}

	engine := httpserver.NewEngine(table, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok: %s %s\n", r.Method, r.URL.Path)
	}), opts...)

	log.Infof("serving on %s", addr)
	if err := http.ListenAndServe(addr, httpserver.Middleware(engine)); err != nil {
		log.Fatalf("serve: %v", err)
	}
}
