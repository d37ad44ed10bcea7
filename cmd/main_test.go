package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/wicket/internal/adapters/repository"
	"github.com/okian/wicket/internal/config"
	"github.com/okian/wicket/pkg/logger"
)

func freeAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	defer func() { _ = l.Close() }()
	return l.Addr().String()
}

func TestOpenStore(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New()

		convey.Convey("Then the memory driver needs nothing", func() {
			s, err := openStore(cfg)
			convey.So(err, convey.ShouldBeNil)
			_, ok := s.(*repository.MemoryStore)
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(s.Close(), convey.ShouldBeNil)
		})

		convey.Convey("Then the sqlite driver opens a file", func() {
			cfg.StoreDriver = config.StoreSQLite
			cfg.StoreDSN = filepath.Join(t.TempDir(), "wicket.db")
			s, err := openStore(cfg)
			convey.So(err, convey.ShouldBeNil)
			convey.So(s.Close(), convey.ShouldBeNil)
			_, err = os.Stat(cfg.StoreDSN)
			convey.So(err, convey.ShouldBeNil)
		})

		convey.Convey("Then an unknown driver is refused", func() {
			cfg.StoreDriver = "mongo"
			_, err := openStore(cfg)
			convey.So(err, convey.ShouldNotBeNil)
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given a running server", t, func() {
		cfg := config.New()
		cfg.Addr = freeAddr()
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg, logger.Nop()) }()

		convey.Convey("Then it answers health checks and stops on cancel", func() {
			var resp *http.Response
			var err error
			for i := 0; i < 50; i++ {
				resp, err = http.Get("http://" + cfg.Addr + "/healthz")
				if err == nil {
					break
				}
				time.Sleep(20 * time.Millisecond)
			}
			convey.So(err, convey.ShouldBeNil)
			convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusOK)
			_ = resp.Body.Close()

			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("server did not stop")
			}
		})
	})
}
