package detector

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	anogoErrors "github.com/YuminosukeSato/anogo/pkg/errors"
	"github.com/YuminosukeSato/anogo/pkg/log"
)

// LibraryVersion is the AnoGo release identifier written into container
// metadata. The root package re-exports it as anogo.Version.
const LibraryVersion = "0.1.0"

// AttributesSchemaVersion identifies the layout of the attributes part.
// Load refuses containers written with a newer schema.
const AttributesSchemaVersion = 1

// Container part names. The backend part is a directory so adapters are free
// to write whatever their native serialization produces.
const (
	ContainerExt   = ".zip"
	metadataFile   = "metadata.json"
	attributesFile = "attributes.json"
	backendDirName = "backend"
)

// Metadata is the advisory part of a persisted model container. It is never
// consulted by Load; use ReadMetadata to inspect a container without
// restoring it.
type Metadata struct {
	ClassName     string   `json:"class_name"`
	Algorithm     string   `json:"algorithm"`
	Contamination float64  `json:"contamination"`
	Threshold     *float64 `json:"threshold"`
	Version       string   `json:"version"`
}

// attributesRecord is the canonical wrapper-state part. Adapter state is
// carried opaquely in Adapter and decoded into the driver's own versioned
// record on load.
type attributesRecord struct {
	SchemaVersion int             `json:"schema_version"`
	ClassName     string          `json:"class_name"`
	Contamination float64         `json:"contamination"`
	Threshold     *float64        `json:"threshold,omitempty"`
	Adapter       json.RawMessage `json:"adapter,omitempty"`
}

// Save writes the detector to a three-part container at path, appending the
// ".zip" extension when missing. Only fitted detectors can be saved.
func (b *Base) Save(path string) (err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.Save", b.algorithm))

	if !b.state.IsFitted() {
		return anogoErrors.NewNotFittedError(b.algorithm, "Save")
	}
	if filepath.Ext(path) != ContainerExt {
		path += ContainerExt
	}

	start := time.Now()

	f, err := os.Create(path)
	if err != nil {
		return anogoErrors.Wrapf(err, "anogo: %s.Save: failed to create container", b.algorithm)
	}
	if err := b.SaveTo(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return anogoErrors.Wrapf(err, "anogo: %s.Save: failed to finalize container", b.algorithm)
	}

	b.logger.Info("detector saved",
		log.OperationKey, log.OperationSave,
		log.PathKey, path,
		log.SchemaVersionKey, AttributesSchemaVersion,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// SaveTo streams the container to w. The three parts are built in a scratch
// directory that is removed on every exit path, then packed as a zip archive.
func (b *Base) SaveTo(w io.Writer) (err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.SaveTo", b.algorithm))

	if !b.state.IsFitted() {
		return anogoErrors.NewNotFittedError(b.algorithm, "SaveTo")
	}

	scratch, err := os.MkdirTemp("", "anogo-save-")
	if err != nil {
		return anogoErrors.Wrap(err, "anogo: failed to create scratch directory")
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	if err := b.writeParts(scratch); err != nil {
		return err
	}
	return packZip(w, scratch)
}

// writeParts materializes metadata, attributes, and the backend blob in the
// scratch directory.
func (b *Base) writeParts(scratch string) error {
	var thresholdPtr *float64
	if t, ok := b.state.Threshold(); ok {
		tCopy := t
		thresholdPtr = &tCopy
	}
	className := b.algorithm + AdapterSuffix

	meta := Metadata{
		ClassName:     className,
		Algorithm:     b.algorithm,
		Contamination: b.contamination,
		Threshold:     thresholdPtr,
		Version:       LibraryVersion,
	}
	if err := writeJSON(filepath.Join(scratch, metadataFile), meta); err != nil {
		return anogoErrors.Wrap(err, "anogo: failed to write container metadata")
	}

	record := attributesRecord{
		SchemaVersion: AttributesSchemaVersion,
		ClassName:     className,
		Contamination: b.contamination,
		Threshold:     thresholdPtr,
	}
	if attrs := b.driver.Attributes(); attrs != nil {
		raw, err := json.Marshal(attrs)
		if err != nil {
			return anogoErrors.Wrapf(err, "anogo: failed to encode %s attributes", className)
		}
		record.Adapter = raw
	}
	if err := writeJSON(filepath.Join(scratch, attributesFile), record); err != nil {
		return anogoErrors.Wrap(err, "anogo: failed to write container attributes")
	}

	backendDir := filepath.Join(scratch, backendDirName)
	if err := os.Mkdir(backendDir, 0o755); err != nil {
		return anogoErrors.Wrap(err, "anogo: failed to create backend directory")
	}
	return b.driver.SaveBackend(backendDir)
}

// Load restores the detector from a container. A path given without the
// archive extension is probed with ".zip" appended. The attributes part is
// restored first, then the backend; the detector is marked fitted only after
// both succeed.
func (b *Base) Load(path string) (err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.Load", b.algorithm))

	resolved, err := resolveContainerPath(path)
	if err != nil {
		return err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return anogoErrors.NewLoadError("open container", resolved, err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return anogoErrors.NewLoadError("open container", resolved, err)
	}
	return b.loadFrom(f, info.Size(), resolved)
}

// LoadFrom restores the detector from an in-memory or seekable container.
func (b *Base) LoadFrom(r io.ReaderAt, size int64) (err error) {
	defer anogoErrors.Recover(&err, fmt.Sprintf("%s.LoadFrom", b.algorithm))
	return b.loadFrom(r, size, "")
}

func (b *Base) loadFrom(r io.ReaderAt, size int64, origin string) error {
	start := time.Now()

	zr, err := zip.NewReader(r, size)
	if err != nil {
		return anogoErrors.NewLoadError("read container", origin, err)
	}

	scratch, err := os.MkdirTemp("", "anogo-load-")
	if err != nil {
		return anogoErrors.Wrap(err, "anogo: failed to create scratch directory")
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	if err := unpackZip(zr, scratch, origin); err != nil {
		return err
	}
	if err := b.restore(scratch, origin); err != nil {
		return err
	}

	threshold, _ := b.state.Threshold()
	b.logger.Info("detector loaded",
		log.OperationKey, log.OperationLoad,
		log.PathKey, origin,
		log.ThresholdKey, threshold,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// restore applies the unpacked container parts to the detector. All three
// parts must be present even though metadata is never parsed.
func (b *Base) restore(scratch, origin string) error {
	b.state.Reset()

	if _, err := os.Stat(filepath.Join(scratch, metadataFile)); err != nil {
		return missingPart(origin, metadataFile, err)
	}

	raw, err := os.ReadFile(filepath.Join(scratch, attributesFile))
	if err != nil {
		return missingPart(origin, attributesFile, err)
	}
	var record attributesRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return anogoErrors.NewLoadError("parse attributes part", origin, err)
	}
	if record.SchemaVersion != AttributesSchemaVersion {
		return anogoErrors.NewLoadError("parse attributes part", origin,
			anogoErrors.Newf("unsupported attributes schema version %d (supported: %d)",
				record.SchemaVersion, AttributesSchemaVersion))
	}

	b.contamination = record.Contamination
	if record.Threshold != nil {
		b.state.SetThreshold(*record.Threshold)
	}
	if record.Adapter != nil {
		if attrs := b.driver.Attributes(); attrs != nil {
			if err := json.Unmarshal(record.Adapter, attrs); err != nil {
				return anogoErrors.NewLoadError("decode adapter attributes", origin, err)
			}
		}
	}

	backendDir := filepath.Join(scratch, backendDirName)
	info, err := os.Stat(backendDir)
	if err != nil || !info.IsDir() {
		if err == nil {
			err = anogoErrors.Newf("%s is not a directory", backendDirName)
		}
		return missingPart(origin, backendDirName+"/", err)
	}
	if err := b.driver.LoadBackend(backendDir); err != nil {
		return err
	}

	b.state.SetFitted()
	return nil
}

// ReadMetadata returns the advisory metadata part of a container without
// restoring anything. The path is probed with ".zip" appended when missing.
func ReadMetadata(path string) (Metadata, error) {
	var meta Metadata

	resolved, err := resolveContainerPath(path)
	if err != nil {
		return meta, err
	}
	zr, err := zip.OpenReader(resolved)
	if err != nil {
		return meta, anogoErrors.NewLoadError("read container", resolved, err)
	}
	defer func() { _ = zr.Close() }()

	for _, f := range zr.File {
		if f.Name != metadataFile {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return meta, anogoErrors.NewLoadError("read metadata part", resolved, err)
		}
		defer func() { _ = rc.Close() }()
		if err := json.NewDecoder(rc).Decode(&meta); err != nil {
			return meta, anogoErrors.NewLoadError("parse metadata part", resolved, err)
		}
		return meta, nil
	}
	return meta, missingPart(resolved, metadataFile, nil)
}

// resolveContainerPath probes path and path+".zip" and returns whichever
// exists.
func resolveContainerPath(path string) (string, error) {
	if path == "" {
		return "", anogoErrors.NewValueError("Load", "container path must not be empty")
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	withExt := path + ContainerExt
	if _, err := os.Stat(withExt); err == nil {
		return withExt, nil
	}
	return "", anogoErrors.NewLoadError("locate container", path, os.ErrNotExist)
}

func missingPart(origin, part string, cause error) error {
	err := anogoErrors.Wrapf(anogoErrors.ErrMissingPart, "container part %q", part)
	if cause != nil {
		err = anogoErrors.Wrapf(err, "%v", cause)
	}
	return anogoErrors.NewLoadError("restore container", origin, err)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// packZip writes every regular file under root into a zip archive on w,
// using forward-slash relative names.
func packZip(w io.Writer, root string) error {
	zw := zip.NewWriter(w)

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		header := &zip.FileHeader{
			Name:   filepath.ToSlash(rel),
			Method: zip.Deflate,
		}
		dst, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		_, err = io.Copy(dst, src)
		return err
	})
	if err != nil {
		_ = zw.Close()
		return anogoErrors.Wrap(err, "anogo: failed to pack container")
	}
	if err := zw.Close(); err != nil {
		return anogoErrors.Wrap(err, "anogo: failed to pack container")
	}
	return nil
}

// unpackZip extracts an archive into dest, rejecting entries whose names
// would escape it.
func unpackZip(zr *zip.Reader, dest, origin string) error {
	for _, f := range zr.File {
		name := f.Name
		if strings.Contains(name, `\`) || !filepath.IsLocal(filepath.FromSlash(name)) {
			return anogoErrors.NewLoadError("unpack container", origin,
				anogoErrors.Newf("unsafe entry name %q", name))
		}
		target := filepath.Join(dest, filepath.FromSlash(name))

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return anogoErrors.NewLoadError("unpack container", origin, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return anogoErrors.NewLoadError("unpack container", origin, err)
		}
		if err := extractFile(f, target); err != nil {
			return anogoErrors.NewLoadError("unpack container", origin, err)
		}
	}
	return nil
}

func extractFile(f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() { _ = rc.Close() }()

	out, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
