package ingest

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pierrec/lz4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"climate-dashboard/internal/models"
)

const sampleCSV = `time,tavg,tmin,tmax,prcp
01-06-2020,33,28,36,0
02-06-2020,28,24,34,5
01-06-2021,31,27,37,
`

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func lz4Bytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestLoad_PlainCSV(t *testing.T) {
	result, err := Load("delhi.csv", strings.NewReader(sampleCSV), 0)
	require.NoError(t, err)

	assert.Equal(t, CompressionNone, result.Compression)
	assert.Equal(t, []string{"time", "tavg", "tmin", "tmax", "prcp"}, result.Columns)
	require.Len(t, result.Records, 3)
	assert.Equal(t, models.RawObservation{Time: "01-06-2020", Precipitation: "0", MaxTemp: "36", AvgTemp: "33"}, result.Records[0])

	observations := result.Observations()
	require.Len(t, observations, 3)
	assert.Nil(t, observations[2].PrecipitationMM)
	require.NotNil(t, observations[2].MaxTemperatureCelsius)
	assert.Equal(t, 37.0, *observations[2].MaxTemperatureCelsius)
}

func TestLoad_CompressedFormats(t *testing.T) {
	payload := []byte(sampleCSV)

	tests := []struct {
		name        string
		fileName    string
		data        []byte
		compression Compression
	}{
		{name: "gzip", fileName: "data.csv.gz", data: gzipBytes(t, payload), compression: CompressionGzip},
		{name: "lz4", fileName: "data.csv.LZ4", data: lz4Bytes(t, payload), compression: CompressionLZ4},
		{
			name:     "zip picks largest entry",
			fileName: "data.zip",
			data: zipBytes(t, map[string]string{
				"README.txt": "notes",
				"data.csv":   sampleCSV,
			}),
			compression: CompressionZip,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Load(tt.fileName, bytes.NewReader(tt.data), 0)
			require.NoError(t, err)
			assert.Equal(t, tt.compression, result.Compression)
			assert.Len(t, result.Records, 3)
			assert.Equal(t, len(payload), result.PayloadBytes)
		})
	}
}

func TestLoad_CorruptArchive(t *testing.T) {
	_, err := Load("data.csv.gz", strings.NewReader("definitely not gzip"), 0)

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "file", validationErr.Field)
}

func TestLoad_EmptyZip(t *testing.T) {
	_, err := Load("data.zip", bytes.NewReader(zipBytes(t, nil)), 0)

	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestLoad_SizeLimit(t *testing.T) {
	_, err := Load("data.csv", strings.NewReader(sampleCSV), 16)
	assert.True(t, errors.Is(err, ErrTooLarge))

	_, err = Load("data.csv", strings.NewReader(sampleCSV), int64(len(sampleCSV)))
	assert.NoError(t, err)
}

// repeatedCSV streams size bytes of valid rows into w.
func repeatedCSV(t *testing.T, w io.Writer, size int) {
	t.Helper()
	chunk := []byte(strings.Repeat("01-06-2020,0,36,33\n", 1<<12))
	_, err := w.Write([]byte("time,prcp,tmax,tavg\n"))
	require.NoError(t, err)
	for written := 0; written < size; written += len(chunk) {
		_, err := w.Write(chunk)
		require.NoError(t, err)
	}
}

func allocatedBytes(fn func()) uint64 {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	fn()
	runtime.ReadMemStats(&after)
	return after.TotalAlloc - before.TotalAlloc
}

func TestLoad_OversizedArchivesAreRejectedWithoutInflating(t *testing.T) {
	const entrySize = 64 << 20
	const limit = 64 << 10

	var zipped bytes.Buffer
	zw := zip.NewWriter(&zipped)
	entry, err := zw.Create("huge.csv")
	require.NoError(t, err)
	repeatedCSV(t, entry, entrySize)
	require.NoError(t, zw.Close())

	var gzipped bytes.Buffer
	gw := gzip.NewWriter(&gzipped)
	repeatedCSV(t, gw, entrySize)
	require.NoError(t, gw.Close())

	tests := []struct {
		name     string
		fileName string
		data     []byte
	}{
		{name: "zip", fileName: "huge.zip", data: zipped.Bytes()},
		{name: "gzip", fileName: "huge.csv.gz", data: gzipped.Bytes()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var loadErr error
			allocated := allocatedBytes(func() {
				_, loadErr = Load(tt.fileName, bytes.NewReader(tt.data), limit)
			})

			assert.True(t, errors.Is(loadErr, ErrTooLarge), "got %v", loadErr)
			assert.Less(t, allocated, uint64(entrySize/4), "payload was inflated before the limit applied")
		})
	}
}

func TestDecompress_ReturnsClosableStream(t *testing.T) {
	for _, name := range []string{"data.csv", "data.csv.gz", "data.csv.lz4", "data.zip"} {
		t.Run(name, func(t *testing.T) {
			var data []byte
			switch DetectCompression(name) {
			case CompressionGzip:
				data = gzipBytes(t, []byte(sampleCSV))
			case CompressionLZ4:
				data = lz4Bytes(t, []byte(sampleCSV))
			case CompressionZip:
				data = zipBytes(t, map[string]string{"data.csv": sampleCSV})
			default:
				data = []byte(sampleCSV)
			}

			rc, err := Decompress(name, bytes.NewReader(data), 0)
			require.NoError(t, err)
			plain, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.Equal(t, sampleCSV, string(plain))
			assert.NoError(t, rc.Close())
		})
	}
}

func TestParse_HeaderMatching(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "upper case", header: "TIME,PRCP,TMAX,TAVG"},
		{name: "padded", header: " time , prcp,tmax ,  tavg"},
		{name: "byte order mark", header: "\ufefftime,prcp,tmax,tavg"},
		{name: "transliterated", header: "\u0422ime,prcp,tmax,tavg "},
		{name: "reordered with extras", header: "station,tavg,tmax,prcp,time,wspd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := strings.Split(tt.header, ",")
			row := make([]string, len(fields))
			for i, f := range fields {
				switch NormalizeHeader(f) {
				case "time":
					row[i] = "01-06-2020"
				case "tmax":
					row[i] = "36"
				default:
					row[i] = "1"
				}
			}
			data := tt.header + "\n" + strings.Join(row, ",") + "\n"

			records, _, err := Parse([]byte(data))
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "01-06-2020", records[0].Time)
			assert.Equal(t, "36", records[0].MaxTemp)
		})
	}
}

func TestParse_MissingColumns(t *testing.T) {
	_, _, err := Parse([]byte("time,tmax\n01-06-2020,36\n"))

	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "prcp", validationErr.Field)
	assert.Contains(t, validationErr.Error(), "prcp, tavg")
	assert.False(t, validationErr.IsTransient())
}

func TestParse_HeaderOnly(t *testing.T) {
	records, header, err := Parse([]byte("time,prcp,tmax,tavg\n"))
	require.NoError(t, err)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	assert.Len(t, header, 4)
}

func TestParse_Empty(t *testing.T) {
	_, _, err := Parse([]byte("  \n"))

	var validationErr *models.ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestParse_MissingMarkers(t *testing.T) {
	records, _, err := Parse([]byte("time,prcp,tmax,tavg\nNA,NaN,,abc\n"))
	require.NoError(t, err)
	require.Len(t, records, 1)

	obs := records[0].ToObservation()
	assert.Nil(t, obs.Timestamp)
	assert.Nil(t, obs.PrecipitationMM)
	assert.Nil(t, obs.MaxTemperatureCelsius)
	assert.Nil(t, obs.AvgTemperatureCelsius)
}

func TestParse_RaggedRows(t *testing.T) {
	data := "time,prcp,tmax,tavg\n01-06-2020,0,36,33\n02-06-2020,5\n03-06-2020,1,37,32,extra\n"

	records, header, err := Parse([]byte(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "prcp", "tmax", "tavg"}, header)
	require.Len(t, records, 3)

	assert.Equal(t, models.RawObservation{Time: "02-06-2020", Precipitation: "5"}, records[1])
	short := records[1].ToObservation()
	require.NotNil(t, short.Timestamp)
	require.NotNil(t, short.PrecipitationMM)
	assert.Equal(t, 5.0, *short.PrecipitationMM)
	assert.Nil(t, short.MaxTemperatureCelsius)
	assert.Nil(t, short.AvgTemperatureCelsius)

	assert.Equal(t, models.RawObservation{Time: "03-06-2020", Precipitation: "1", MaxTemp: "37", AvgTemp: "32"}, records[2])
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weather.csv.gz")
	require.NoError(t, os.WriteFile(path, gzipBytes(t, []byte(sampleCSV)), 0o600))

	result, err := LoadFile(path, 0)
	require.NoError(t, err)
	assert.Equal(t, "weather.csv.gz", result.Name)
	assert.Len(t, result.Records, 3)

	_, err = LoadFile(filepath.Join(t.TempDir(), "absent.csv"), 0)
	assert.Error(t, err)
}

func TestDetectCompression(t *testing.T) {
	assert.Equal(t, CompressionGzip, DetectCompression("a.csv.gz"))
	assert.Equal(t, CompressionLZ4, DetectCompression("a.lz4"))
	assert.Equal(t, CompressionZip, DetectCompression("A.ZIP"))
	assert.Equal(t, CompressionNone, DetectCompression("a.csv"))
	assert.Equal(t, CompressionNone, DetectCompression("noext"))
}
