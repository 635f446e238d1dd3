package wartable_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/okian/seasonmatch/internal/adapters/wartable"
	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/internal/domain/supplemental"
	. "github.com/smartystreets/goconvey/convey"
)

const bat = "mlb_ID,year_ID,WAR\n100,2019,4.5\n"
const pitch = "mlb_ID,year_ID,WAR\n300,2019,2.0\n"

func readAll(rc io.ReadCloser, err error) string {
	So(err, ShouldBeNil)
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	So(err, ShouldBeNil)
	return string(b)
}

func TestHTTPSource(t *testing.T) {
	Convey("Given a server with both tables", t, func() {
		mux := http.NewServeMux()
		mux.HandleFunc("/bat.txt", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(bat)) })
		mux.HandleFunc("/pitch.txt", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(pitch)) })
		srv := httptest.NewServer(mux)
		defer srv.Close()

		src := wartable.NewHTTPSource(srv.URL+"/bat.txt", srv.URL+"/pitch.txt", srv.Client())

		Convey("Then the role picks the table", func() {
			So(readAll(src.Fetch(context.Background(), model.NonPitcher)), ShouldEqual, bat)
			So(readAll(src.Fetch(context.Background(), model.Pitcher)), ShouldEqual, pitch)
		})

		Convey("Then it feeds the resolver", func() {
			r := supplemental.New(src)
			So(r.Resolve(context.Background(), "100", 2019, model.NonPitcher).Or(0), ShouldEqual, 4.5)
		})

		Convey("When a table is missing", func() {
			missing := wartable.NewHTTPSource(srv.URL+"/nope.txt", "", srv.Client())
			_, err := missing.Fetch(context.Background(), model.NonPitcher)

			Convey("Then the fetch fails", func() {
				So(errors.Is(err, wartable.ErrFetchTable), ShouldBeTrue)
			})
		})
	})
}

func TestFileSource(t *testing.T) {
	Convey("Given tables on disk", t, func() {
		dir := t.TempDir()
		batPath := filepath.Join(dir, "bat.txt")
		So(os.WriteFile(batPath, []byte(bat), 0o600), ShouldBeNil)

		src := wartable.NewFileSource(batPath, filepath.Join(dir, "missing.txt"))

		So(readAll(src.Fetch(context.Background(), model.NonPitcher)), ShouldEqual, bat)

		_, err := src.Fetch(context.Background(), model.Pitcher)
		So(errors.Is(err, wartable.ErrFetchTable), ShouldBeTrue)
	})
}

type fakeGetter struct {
	objects map[string]string
	keys    []string
}

func (f *fakeGetter) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.keys = append(f.keys, *in.Bucket+"/"+*in.Key)
	body, ok := f.objects[*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func TestS3Source(t *testing.T) {
	Convey("Given a bucket mirroring the tables", t, func() {
		getter := &fakeGetter{objects: map[string]string{
			"war_daily_bat.txt":    bat,
			"mirror/pitching.txt": pitch,
		}}
		src, err := wartable.NewS3SourceFromClient(getter, "tables", "", "/mirror/pitching.txt")
		So(err, ShouldBeNil)

		Convey("Then default and custom keys are read", func() {
			So(readAll(src.Fetch(context.Background(), model.NonPitcher)), ShouldEqual, bat)
			So(readAll(src.Fetch(context.Background(), model.Pitcher)), ShouldEqual, pitch)
			So(getter.keys, ShouldResemble, []string{"tables/war_daily_bat.txt", "tables/mirror/pitching.txt"})
		})
	})

	Convey("Given a missing object", t, func() {
		src, err := wartable.NewS3SourceFromClient(&fakeGetter{}, "tables", "", "")
		So(err, ShouldBeNil)

		_, err = src.Fetch(context.Background(), model.Pitcher)
		So(errors.Is(err, wartable.ErrFetchTable), ShouldBeTrue)
	})

	Convey("Given no bucket", t, func() {
		_, err := wartable.NewS3SourceFromClient(&fakeGetter{}, "", "", "")
		So(errors.Is(err, wartable.ErrNoBucket), ShouldBeTrue)

		_, err = wartable.NewS3Source(context.Background(), wartable.S3Config{})
		So(errors.Is(err, wartable.ErrNoBucket), ShouldBeTrue)
	})
}
