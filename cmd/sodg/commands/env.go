package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/haivivi/sodg/pkg/cli"
	"github.com/haivivi/sodg/pkg/kv"
	"github.com/haivivi/sodg/pkg/snapshot"
	"github.com/haivivi/sodg/pkg/storage"
)

// snapshotPrefix scopes snapshot keys inside the kv store.
var snapshotPrefix = kv.Key{"sodg"}

// env is what a command works against: the snapshot store and the file
// store scripts are read from.
type env struct {
	kv    kv.Store
	snaps *snapshot.Store
	files storage.FileStore
	local bool
}

func openEnv(ctx context.Context) (*env, error) {
	store, err := openKV()
	if err != nil {
		return nil, err
	}
	files, local, err := openFiles(ctx)
	if err != nil {
		store.Close()
		return nil, err
	}
	return &env{
		kv:    store,
		snaps: snapshot.New(store, snapshotPrefix),
		files: files,
		local: local,
	}, nil
}

func (e *env) close() {
	e.kv.Close()
}

func openKV() (kv.Store, error) {
	kind := flagOr(storeKind, "store")
	if kind == "" {
		kind = "badger"
	}
	if kind == "memory" {
		return kv.NewMemory(nil), nil
	}

	dir := flagOr(dataDir, "data_dir")
	if dir == "" {
		paths, err := cli.NewPaths(appName)
		if err != nil {
			return nil, err
		}
		dir = paths.DataDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	switch kind {
	case "badger":
		return kv.NewBadger(kv.BadgerOptions{Dir: filepath.Join(dir, "badger")})
	case "sqlite":
		return kv.NewSQLite(filepath.Join(dir, "sodg.db"), nil)
	}
	return nil, fmt.Errorf("unknown store %q (want badger, sqlite or memory)", kind)
}

// openFiles returns S3 when a bucket is configured, else the local
// filesystem rooted at "/" with paths made absolute by resolve.
func openFiles(ctx context.Context) (storage.FileStore, bool, error) {
	b := flagOr(bucket, "bucket")
	if b == "" {
		l, err := storage.NewLocal(string(filepath.Separator))
		if err != nil {
			return nil, false, err
		}
		return l, true, nil
	}
	awsCfg, err := loadAWSConfig(ctx)
	if err != nil {
		return nil, false, err
	}
	prefix := ""
	if cfg := getConfig(); cfg != nil {
		prefix = cfg.Current().Prefix
	}
	return storage.NewS3(newS3Client(awsCfg), b, prefix), false, nil
}

// loadAWSConfig resolves credentials and region through the SDK default
// chain (environment, shared config and credentials files, SSO, web
// identity, IMDS). --region, or the context region, overrides the chain.
func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	var opts []func(*config.LoadOptions) error
	if r := flagOr(region, "region"); r != "" {
		opts = append(opts, config.WithRegion(r))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// newS3Client builds the S3 client, pointing it at --endpoint (MinIO, R2)
// with path-style addressing when one is set.
func newS3Client(cfg aws.Config) *s3.Client {
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if ep := flagOr(endpoint, "endpoint"); ep != "" {
			o.BaseEndpoint = aws.String(ep)
			o.UsePathStyle = true
		}
	})
}

// resolve maps a user path to a FileStore path. Local paths are relative
// to the working directory, or to base when base is set.
func (e *env) resolve(base, p string) (string, error) {
	if !e.local {
		if base != "" && !strings.HasPrefix(p, "/") {
			p = base + "/" + p
		}
		return strings.TrimPrefix(p, "/"), nil
	}
	if !filepath.IsAbs(p) {
		if base == "" {
			var err error
			if base, err = os.Getwd(); err != nil {
				return "", err
			}
		}
		p = filepath.Join(base, p)
	}
	return strings.TrimPrefix(filepath.ToSlash(p), "/"), nil
}
