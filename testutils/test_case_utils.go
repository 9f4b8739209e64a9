// Load test cases from JSON files and dump objects for visual checks.

package testutils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/gookit/goutil/dump"
)

func LoadJsonFile(fileName string, obj interface{}) error {
	fileIo, err := os.Open(fileName)
	if err != nil {
		return err
	}
	defer fileIo.Close()
	decoder := json.NewDecoder(fileIo)
	decoder.DisallowUnknownFields()

	err = decoder.Decode(obj)
	if err != nil {
		return fmt.Errorf("%v: error decoding %#v into %T", err, fileName, obj)
	}
	return nil
}

// Dump obj w/o colors and positions, suitable for t.Log:
func DumpToString(obj interface{}) string {
	buf := &bytes.Buffer{}
	dumper := dump.NewDumper(buf, 3)
	dumper.NoColor = true
	dumper.ShowFlag = dump.Fnopos
	dumper.Dump(obj)
	return buf.String()
}

func DuplicateStrings(src []string, sorted bool) []string {
	dst := make([]string, len(src))
	copy(dst, src)
	if sorted {
		sort.Strings(dst)
	}
	return dst
}

func BufToStrings(buf *bytes.Buffer, sorted bool) []string {
	dst := make([]string, 0)
	for _, bMetric := range bytes.Split(buf.Bytes(), []byte("\n")) {
		metric := strings.TrimSpace(string(bMetric))
		if metric != "" {
			dst = append(dst, metric)
		}
	}
	if sorted {
		sort.Strings(dst)
	}
	return dst
}
