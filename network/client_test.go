package network

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/streamctl/streamctl/constant"
)

func TestGet(t *testing.T) {
	Convey("Given a manifest server", t, func() {
		var userAgent string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userAgent = r.UserAgent()
			switch r.URL.Path {
			case "/a.m3u8":
				_, _ = io.WriteString(w, "#EXTM3U\n")
			case "/busy.m3u8":
				w.WriteHeader(http.StatusServiceUnavailable)
			default:
				http.NotFound(w, r)
			}
		}))
		defer server.Close()

		Convey("A found manifest is returned with browser headers", func() {
			resp, err := Get(context.Background(), Client, server.URL+"/a.m3u8")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			So(string(body), ShouldEqual, "#EXTM3U\n")
			So(userAgent, ShouldEqual, constant.UserAgent)
		})

		Convey("A missing manifest is a permanent status error", func() {
			_, err := Get(context.Background(), Client, server.URL+"/gone.m3u8")
			var statusErr *StatusError
			So(errors.As(err, &statusErr), ShouldBeTrue)
			So(statusErr.Code, ShouldEqual, http.StatusNotFound)
			So(statusErr.Permanent(), ShouldBeTrue)
		})

		Convey("An overloaded server is worth retrying", func() {
			_, err := Get(context.Background(), Client, server.URL+"/busy.m3u8")
			var statusErr *StatusError
			So(errors.As(err, &statusErr), ShouldBeTrue)
			So(statusErr.Permanent(), ShouldBeFalse)
		})

		Convey("A cancelled context aborts the request", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := Get(ctx, Client, server.URL+"/a.m3u8")
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestNew(t *testing.T) {
	Convey("New", t, func() {
		Convey("shares the plain client by default", func() {
			So(New(false), ShouldEqual, Client)
		})

		Convey("builds a fingerprinting client on request", func() {
			_, ok := New(true).Transport.(*FingerprintTransport)
			So(ok, ShouldBeTrue)
		})
	})
}

func TestFingerprintTransport(t *testing.T) {
	Convey("Given an HTTP/2 TLS server", t, func() {
		server := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, r.Proto)
		}))
		server.EnableHTTP2 = true
		server.StartTLS()
		defer server.Close()

		pool := server.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs
		transport := NewFingerprintTransport(pool)
		defer transport.CloseIdleConnections()
		client := &http.Client{Transport: transport}

		Convey("Requests go over HTTP/2", func() {
			resp, err := Get(context.Background(), client, server.URL+"/a.m3u8")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			So(string(body), ShouldEqual, "HTTP/2.0")
		})
	})

	Convey("Given a plain HTTP server", t, func() {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}))
		defer server.Close()

		Convey("The request is passed to the shared transport", func() {
			client := &http.Client{Transport: NewFingerprintTransport(nil)}
			resp, err := Get(context.Background(), client, server.URL)
			So(err, ShouldBeNil)
			resp.Body.Close()
		})
	})
}
