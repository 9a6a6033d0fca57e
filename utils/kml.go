package utils

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// MaxKMLSize bounds the decompressed KML read from a KMZ archive.
const MaxKMLSize = 16 << 20

type kmlRing struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	Outer struct {
		Ring kmlRing `xml:"LinearRing"`
	} `xml:"outerBoundaryIs"`
	Inner []struct {
		Ring kmlRing `xml:"LinearRing"`
	} `xml:"innerBoundaryIs"`
}

type kmlPlacemark struct {
	Name          string      `xml:"name"`
	Polygon       *kmlPolygon `xml:"Polygon"`
	MultiGeometry *struct {
		Polygons []kmlPolygon `xml:"Polygon"`
	} `xml:"MultiGeometry"`
}

type kmlFolder struct {
	Name       string         `xml:"name"`
	Placemarks []kmlPlacemark `xml:"Placemark"`
	Folders    []kmlFolder    `xml:"Folder"`
}

type kmlDocument struct {
	XMLName  xml.Name  `xml:"kml"`
	Document kmlFolder `xml:"Document"`
}

// ZoneShape is a named polygon read from a KML or KMZ file.
type ZoneShape struct {
	Name    string
	Polygon orb.Polygon
}

// Boundary encodes the shape as a GeoJSON Polygon geometry.
func (z ZoneShape) Boundary() ([]byte, error) {
	return geojson.NewGeometry(z.Polygon).MarshalJSON()
}

// ParseZoneFile reads every polygon placemark of a KML document or KMZ archive.
// Unnamed placemarks are named after their folder, or "Zone N".
func ParseZoneFile(data []byte) ([]ZoneShape, error) {
	if bytes.HasPrefix(data, []byte("PK")) {
		kml, err := extractKML(data)
		if err != nil {
			return nil, err
		}
		data = kml
	}

	var doc kmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse KML: %w", err)
	}

	var shapes []ZoneShape
	if err := collectShapes(&doc.Document, "", &shapes); err != nil {
		return nil, err
	}
	if len(shapes) == 0 {
		return nil, errors.New("no polygons found")
	}
	for i := range shapes {
		if shapes[i].Name == "" {
			shapes[i].Name = fmt.Sprintf("Zone %d", i+1)
		}
	}
	return shapes, nil
}

func extractKML(kmz []byte) ([]byte, error) {
	reader, err := zip.NewReader(bytes.NewReader(kmz), int64(len(kmz)))
	if err != nil {
		return nil, fmt.Errorf("failed to open KMZ archive: %w", err)
	}
	for _, f := range reader.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".kml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open KML file: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(io.LimitReader(rc, MaxKMLSize+1))
		if err != nil {
			return nil, fmt.Errorf("failed to read KML file: %w", err)
		}
		if len(data) > MaxKMLSize {
			return nil, fmt.Errorf("KML file exceeds %d bytes", MaxKMLSize)
		}
		return data, nil
	}
	return nil, errors.New("no KML file found in KMZ archive")
}

func collectShapes(folder *kmlFolder, folderName string, out *[]ZoneShape) error {
	if folder.Name != "" {
		folderName = folder.Name
	}
	for _, pm := range folder.Placemarks {
		polygons := []kmlPolygon{}
		if pm.Polygon != nil {
			polygons = append(polygons, *pm.Polygon)
		}
		if pm.MultiGeometry != nil {
			polygons = append(polygons, pm.MultiGeometry.Polygons...)
		}

		name := strings.TrimSpace(pm.Name)
		if name == "" {
			name = folderName
		}
		for i, pg := range polygons {
			poly, err := toPolygon(pg)
			if err != nil {
				return fmt.Errorf("placemark %q: %w", pm.Name, err)
			}
			shapeName := name
			if len(polygons) > 1 && name != "" {
				shapeName = fmt.Sprintf("%s (%d)", name, i+1)
			}
			*out = append(*out, ZoneShape{Name: shapeName, Polygon: poly})
		}
	}
	for i := range folder.Folders {
		if err := collectShapes(&folder.Folders[i], folderName, out); err != nil {
			return err
		}
	}
	return nil
}

func toPolygon(pg kmlPolygon) (orb.Polygon, error) {
	outer, err := parseRing(pg.Outer.Ring.Coordinates)
	if err != nil {
		return nil, err
	}
	poly := orb.Polygon{outer}
	for _, inner := range pg.Inner {
		ring, err := parseRing(inner.Ring.Coordinates)
		if err != nil {
			return nil, err
		}
		poly = append(poly, ring)
	}
	return poly, nil
}

// parseRing reads "lon,lat[,ele] lon,lat[,ele] ..." and closes the ring.
func parseRing(s string) (orb.Ring, error) {
	ring := orb.Ring{}
	for _, tuple := range strings.Fields(s) {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			return nil, fmt.Errorf("bad coordinate %q", tuple)
		}
		lon, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil, fmt.Errorf("bad longitude %q", parts[0])
		}
		lat, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad latitude %q", parts[1])
		}
		p := orb.Point{lon, lat}
		if err := validatePoint(p); err != nil {
			return nil, err
		}
		ring = append(ring, p)
	}
	if len(ring) < 3 {
		return nil, errors.New("ring must have at least 3 coordinates")
	}
	if !ring.Closed() {
		ring = append(ring, ring[0])
	}
	return ring, nil
}
