package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/profiles/internal/records"
	"github.com/mesh-intelligence/profiles/pkg/types"
)

type addFlags struct {
	name         string
	age          int
	location     string
	gender       string
	images       []string
	biodataText  string
	biodataImage string
	inline       bool
}

func newAddCmd(a *app) *cobra.Command {
	var f addFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a profile record",
		Long: "Create a profile record. Images are stored in the blob database and\n" +
			"referenced by id unless --inline is given, in which case they are\n" +
			"embedded as base64 data URLs.",
		Example: "  profiles add --name \"Asha Rao\" --age 29 --location Pune --gender female --image a.jpg --image b.png",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := f.newRecord()
			if err != nil {
				return err
			}
			return a.withStores(cmd, func(ctx context.Context) error {
				rec, err := a.records.Create(ctx, in)
				if errors.Is(err, types.ErrInvalidRecord) {
					return userError("%w", err)
				}
				if err != nil {
					return sysError("create record: %w", err)
				}
				return a.output(cmd, rec, func(w io.Writer) {
					fmt.Fprintf(w, "created %s (%d images, %s)\n", rec.ID, len(rec.Images), rec.Mode())
				})
			})
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "full name")
	cmd.Flags().IntVar(&f.age, "age", 0, "age in years")
	cmd.Flags().StringVar(&f.location, "location", "", "location")
	cmd.Flags().StringVar(&f.gender, "gender", "", "gender: male or female")
	cmd.Flags().StringArrayVar(&f.images, "image", nil, "image file (repeatable)")
	cmd.Flags().StringVar(&f.biodataText, "biodata-text", "", "biodata as text")
	cmd.Flags().StringVar(&f.biodataImage, "biodata-image", "", "biodata as an image file")
	cmd.Flags().BoolVar(&f.inline, "inline", false, "embed images as base64 data URLs")
	cmd.MarkFlagsMutuallyExclusive("biodata-text", "biodata-image")
	return cmd
}

func (f addFlags) newRecord() (records.NewRecord, error) {
	in := records.NewRecord{
		FullName:    f.name,
		Age:         f.age,
		Location:    f.location,
		Gender:      types.Gender(f.gender),
		BiodataText: f.biodataText,
		Inline:      f.inline,
	}
	for _, path := range f.images {
		img, err := readImageFile(path)
		if err != nil {
			return records.NewRecord{}, err
		}
		in.Images = append(in.Images, img)
	}
	if f.biodataImage != "" {
		img, err := readImageFile(f.biodataImage)
		if err != nil {
			return records.NewRecord{}, err
		}
		in.BiodataImage = &img
	}
	return in, nil
}

// readImageFile loads path and infers its media type from the extension,
// falling back to content sniffing.
func readImageFile(path string) (records.ImageFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return records.ImageFile{}, userError("read image: %w", err)
	}
	mediaType := mime.TypeByExtension(filepath.Ext(path))
	if mediaType == "" {
		mediaType = mimetype.Detect(data).String()
	}
	if mt, _, err := mime.ParseMediaType(mediaType); err == nil {
		mediaType = mt
	}
	return records.ImageFile{Data: data, MediaType: mediaType, FileName: filepath.Base(path)}, nil
}
