// Command diffkit serves the diffkit HTTP surface: upload two files, get
// back a shareable diff.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.etcd.io/bbolt"

	"github.com/ersinkoc/diffkit/pkg/catalog"
	httpserver "github.com/ersinkoc/diffkit/pkg/http"
	"github.com/ersinkoc/diffkit/pkg/store"
)

type optsType struct {
	listenAddr     string
	publicURL      string
	dbFile         string
	s3Endpoint     string
	s3AccessKey    string
	s3AccessSecret string
	s3Bucket       string
	cacheBytes     string
}

func defaultEnv(s, def string) string {
	v, ok := os.LookupEnv(s)
	if ok {
		return v
	}
	return def
}

func stringVar(p *string, fg, defaultValue, usage string) {
	ev := strings.ReplaceAll(strings.ToUpper(fg), "-", "_")
	flag.StringVar(p, fg, defaultEnv(ev, defaultValue), usage+". env var: "+ev)
}

func main() {
	var opts optsType
	stringVar(&opts.listenAddr, "listen-addr", ":18844", "listen address for the web server")
	stringVar(&opts.publicURL, "public-url", "localhost:18844", "url for the server, used in the curl example")
	stringVar(&opts.dbFile, "db-file", "data/db.bolt", "the file used for the database. "+
		"this will be a cache (if used together with s3) or the permanent database")
	stringVar(&opts.s3Endpoint, "s3-endpoint", "", "s3 endpoint")
	stringVar(&opts.s3AccessKey, "s3-access-key", "", "s3 access key")
	stringVar(&opts.s3AccessSecret, "s3-access-secret", "", "s3 access secret")
	stringVar(&opts.s3Bucket, "s3-bucket", "", "s3 bucket")
	stringVar(&opts.cacheBytes, "cache-bytes", fmt.Sprint(256<<20), "size in bytes of the on-disk cache fronting s3; unused without -s3-endpoint")
	flag.Parse()

	if err := run(opts); err != nil {
		panic(err)
	}
}

func run(opts optsType) error {
	bdb, err := bbolt.Open(opts.dbFile, 0o600, nil)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}

	objStorage, err := buildStorage(opts, bdb)
	if err != nil {
		return err
	}

	srv := &httpserver.Server{
		PublicURL: opts.publicURL,
		Storage:   objStorage,
		Catalog:   &catalog.DB{DB: bdb},
		Output:    os.Stdout,
	}

	fmt.Println("listening on", opts.listenAddr)
	return http.ListenAndServe(opts.listenAddr, srv.Router())
}

// buildStorage picks the permanent backend per opts: a bbolt bucket when no
// S3 endpoint is configured, or a minio-backed store fronted by an
// on-disk CachingStorage cache otherwise.
func buildStorage(opts optsType, bdb *bbolt.DB) (store.Storage, error) {
	if opts.s3Endpoint == "" {
		return store.NewBoltStorage(bdb, "storage")
	}

	minioClient, err := minio.New(opts.s3Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.s3AccessKey, opts.s3AccessSecret, ""),
		Secure: true,
	})
	if err != nil {
		return nil, fmt.Errorf("minio init error: %w", err)
	}

	cacheBytes, err := strconv.ParseUint(opts.cacheBytes, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid -cache-bytes %q: %w", opts.cacheBytes, err)
	}

	cache, err := store.NewBoltStorage(bdb, "cache")
	if err != nil {
		return nil, err
	}
	permanent := store.NewMinioStorage(minioClient, opts.s3Bucket)
	return store.NewCachingStorage(cache, permanent, cacheBytes)
}
