// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package backblaze

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/kothar/go-backblaze"
	"github.com/rs/zerolog/log"
)

var (
	ErrBucketNotFound = errors.New("bucket not found")
)

// Config holds the B2 credentials and the destination of exported files
type Config struct {
	KeyID          string
	ApplicationKey string
	Bucket         string
	Prefix         string
}

// Enabled reports whether enough settings are present to upload
func (cfg Config) Enabled() bool {
	return cfg.KeyID != "" && cfg.ApplicationKey != "" && cfg.Bucket != ""
}

// ObjectName is the name fn is stored under in the bucket
func (cfg Config) ObjectName(fn string) string {
	if cfg.Prefix == "" {
		return filepath.Base(fn)
	}
	return path.Join(cfg.Prefix, filepath.Base(fn))
}

// Upload copies each file to the configured bucket
func Upload(cfg Config, files ...string) error {
	b2, err := backblaze.NewB2(backblaze.Credentials{
		KeyID:          cfg.KeyID,
		ApplicationKey: cfg.ApplicationKey,
	})
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("authorize backblaze failed")
		return err
	}

	bucket, err := b2.Bucket(cfg.Bucket)
	if err != nil {
		log.Error().Err(err).Str("BucketName", cfg.Bucket).Msg("lookup bucket failed")
		return err
	}
	if bucket == nil {
		log.Error().Str("BucketName", cfg.Bucket).Msg("bucket does not exist")
		return fmt.Errorf("%w: %s", ErrBucketNotFound, cfg.Bucket)
	}

	for _, fn := range files {
		if err := uploadFile(bucket, cfg, fn); err != nil {
			return err
		}
	}

	return nil
}

func uploadFile(bucket *backblaze.Bucket, cfg Config, fn string) error {
	reader, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer reader.Close()

	outName := cfg.ObjectName(fn)
	file, err := bucket.UploadFile(outName, map[string]string{}, reader)
	if err != nil {
		log.Error().Err(err).Str("FileName", outName).Str("BucketName", cfg.Bucket).Msg("save file to backblaze failed")
		return err
	}

	log.Info().Str("FileName", file.Name).Int64("Size", file.ContentLength).Str("ID", file.ID).Msg("uploaded file to backblaze")
	return nil
}
