package pointcloud

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// PCDType is the format of a pcd file.
type PCDType int

const (
	// PCDAscii ascii format for pcd.
	PCDAscii PCDType = 0
	// PCDBinary binary format for pcd.
	PCDBinary PCDType = 1
)

const pcdCommentChar = "#"

var pcdHeaderFields = []string{"VERSION", "FIELDS", "SIZE", "TYPE", "COUNT", "WIDTH", "HEIGHT", "VIEWPOINT", "POINTS", "DATA"}

type pcdHeader struct {
	width  uint64
	height uint64
	points uint64
	data   PCDType
}

// ToPCD writes the cloud as an unorganized xyz pcd. Coordinates are written as-is, in meters.
func ToPCD(cloud PointCloud, out io.Writer, outputType PCDType) error {
	_, err := fmt.Fprintf(out, "VERSION .7\n"+
		"FIELDS x y z\n"+
		"SIZE 4 4 4\n"+
		"TYPE F F F\n"+
		"COUNT 1 1 1\n"+
		"WIDTH %d\n"+
		"HEIGHT 1\n"+
		"VIEWPOINT 0 0 0 1 0 0 0\n"+
		"POINTS %d\n",
		cloud.Size(),
		cloud.Size())
	if err != nil {
		return err
	}

	switch outputType {
	case PCDAscii:
		_, err = fmt.Fprintf(out, "DATA ascii\n")
	case PCDBinary:
		_, err = fmt.Fprintf(out, "DATA binary\n")
	default:
		return errors.Errorf("unsupported pcd output type %d", outputType)
	}
	if err != nil {
		return err
	}
	return writePCDData(cloud, out, outputType)
}

func writePCDData(cloud PointCloud, out io.Writer, pcdtype PCDType) error {
	var err error
	buf := make([]byte, 12)
	cloud.Iterate(0, 0, func(_ int, pos r3.Vector) bool {
		switch pcdtype {
		case PCDBinary:
			binary.LittleEndian.PutUint32(buf, math.Float32bits(float32(pos.X)))
			binary.LittleEndian.PutUint32(buf[4:], math.Float32bits(float32(pos.Y)))
			binary.LittleEndian.PutUint32(buf[8:], math.Float32bits(float32(pos.Z)))
			_, err = out.Write(buf)
		case PCDAscii:
			_, err = fmt.Fprintf(out, "%f %f %f\n", pos.X, pos.Y, pos.Z)
		}
		return err == nil
	})
	return err
}

// WriteToPCDFile writes the cloud to the named file in ascii pcd format.
func WriteToPCDFile(cloud PointCloud, fn string) (err error) {
	//nolint:gosec
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	w := bufio.NewWriter(f)
	if err = ToPCD(cloud, w, PCDAscii); err != nil {
		return err
	}
	return w.Flush()
}

func parsePCDHeaderLine(line string, index int, header *pcdHeader) error {
	var err error
	name := pcdHeaderFields[index]
	field, value, _ := strings.Cut(line, " ")
	if field != name {
		return errors.Errorf("line is supposed to start with %s but is %s", name, line)
	}

	switch name {
	case "VERSION":
		if value != ".7" && value != "0.7" {
			return errors.Errorf("unsupported pcd version %s", value)
		}
	case "FIELDS":
		if value != "x y z" {
			return errors.Errorf("unsupported pcd fields %s", value)
		}
	case "SIZE":
		if value != "4 4 4" {
			return errors.Errorf("unsupported pcd field sizes %s", value)
		}
	case "TYPE":
		if value != "F F F" {
			return errors.Errorf("unsupported pcd field types %s", value)
		}
	case "WIDTH":
		header.width, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid WIDTH field %s", value)
		}
	case "HEIGHT":
		header.height, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid HEIGHT field %s", value)
		}
	case "POINTS":
		header.points, err = strconv.ParseUint(value, 10, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid POINTS field %s", value)
		}
		if header.points != header.width*header.height {
			return errors.Errorf("POINTS field %d does not match WIDTH*HEIGHT %d", header.points, header.width*header.height)
		}
	case "DATA":
		switch value {
		case "ascii":
			header.data = PCDAscii
		case "binary":
			header.data = PCDBinary
		default:
			return errors.Errorf("unsupported pcd data type %s", value)
		}
	}
	return nil
}

// ReadPCD reads an xyz pcd in ascii or binary format.
func ReadPCD(inRaw io.Reader) (PointCloud, error) {
	header := pcdHeader{}
	in := bufio.NewReader(inRaw)
	headerLineCount := 0
	for headerLineCount < len(pcdHeaderFields) {
		line, err := in.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "error reading header line %d", headerLineCount)
		}
		line, _, _ = strings.Cut(line, pcdCommentChar)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parsePCDHeaderLine(line, headerLineCount, &header); err != nil {
			return nil, err
		}
		headerLineCount++
	}
	switch header.data {
	case PCDAscii:
		return readPCDAscii(in, header)
	case PCDBinary:
		return readPCDBinary(in, header)
	default:
		return nil, errors.Errorf("unsupported pcd data type %v", header.data)
	}
}

func readPCDAscii(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	pc := NewWithPrealloc(int(header.points))
	for i := 0; i < int(header.points); i++ {
		line, err := in.ReadString('\n')
		if err != nil && !(errors.Is(err, io.EOF) && line != "") {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		tokens := strings.Fields(line)
		if len(tokens) != 3 {
			return nil, errors.Errorf("unexpected number of fields in point %d", i)
		}
		var xyz [3]float64
		for j, token := range tokens {
			xyz[j], err = strconv.ParseFloat(token, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid point %d field %s", i, token)
			}
		}
		pc.Append(r3.Vector{X: xyz[0], Y: xyz[1], Z: xyz[2]})
	}
	return pc, nil
}

func readPCDBinary(in *bufio.Reader, header pcdHeader) (PointCloud, error) {
	pc := NewWithPrealloc(int(header.points))
	buf := make([]byte, 12)
	for i := 0; i < int(header.points); i++ {
		if _, err := io.ReadFull(in, buf); err != nil {
			return nil, errors.Wrapf(err, "reading point %d", i)
		}
		pc.Append(r3.Vector{
			X: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf))),
			Y: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:]))),
			Z: float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:]))),
		})
	}
	return pc, nil
}
