// Command fakeremote serves an in-memory stand-in for the remote backend's five endpoint
// groups, for local development against the socialclient API.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"socialclient/internal/fakeremote"
)

func main() {
	var (
		addr       string
		adminPhone string
		adminPass  string
		verbose    bool
	)
	flag.StringVar(&addr, "addr", "127.0.0.1:9090", "listen address")
	flag.StringVar(&adminPhone, "admin-phone", "", "seed an administrator with this phone")
	flag.StringVar(&adminPass, "admin-password", "admin", "password for the seeded administrator")
	flag.BoolVar(&verbose, "v", false, "log every request")
	flag.Parse()

	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	srv := fakeremote.New(fakeremote.WithLogger(log))
	if adminPhone != "" {
		id, err := srv.SeedUser(adminPhone, adminPass, "Administrator", true)
		if err != nil {
			log.Fatalf("seed admin: %v", err)
		}
		log.WithFields(logrus.Fields{"id": id, "phone": adminPhone}).Info("seeded administrator")
	}

	base := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		base = "http://127.0.0.1" + addr
	}
	eps := fakeremote.Endpoints(base)
	fmt.Printf("SOCIALCLIENT_ENDPOINT_AUTH=%s\n", eps.Auth)
	fmt.Printf("SOCIALCLIENT_ENDPOINT_POSTS=%s\n", eps.Posts)
	fmt.Printf("SOCIALCLIENT_ENDPOINT_MESSAGES=%s\n", eps.Messages)
	fmt.Printf("SOCIALCLIENT_ENDPOINT_NOTIFICATIONS=%s\n", eps.Notifications)
	fmt.Printf("SOCIALCLIENT_ENDPOINT_ADMIN=%s\n", eps.Admin)

	log.WithField("addr", addr).Info("fake remote listening")
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
