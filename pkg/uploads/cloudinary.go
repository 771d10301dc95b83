/**
 * @description
 * This package wraps the Cloudinary client used to store proof-of-payment
 * images. Users attach the returned public URL to their deposit submissions;
 * the files themselves never touch the service's own storage.
 *
 * @dependencies
 * - context, errors, mime/multipart: Standard Go libraries.
 * - github.com/cloudinary/cloudinary-go/v2: The Cloudinary client library.
 */

package uploads

import (
	"context"
	"errors"
	"mime/multipart"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

const defaultFolder = "funding/proofs"

// CloudinaryUploader uploads proof-of-payment files to a fixed folder.
type CloudinaryUploader struct {
	client *cloudinary.Cloudinary
	folder string
}

// NewCloudinaryUploader creates an uploader from a cloudinary:// credential URL.
func NewCloudinaryUploader(cloudinaryURL, folder string) (*CloudinaryUploader, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	folder = strings.TrimSpace(folder)
	if folder == "" {
		folder = defaultFolder
	}
	return &CloudinaryUploader{client: cld, folder: folder}, nil
}

// UploadProof uploads the file and returns its public HTTPS URL.
func (u *CloudinaryUploader) UploadProof(ctx context.Context, file multipart.File, filename string) (string, error) {
	result, err := u.client.Upload.Upload(ctx, file, uploader.UploadParams{
		Folder: u.folder,
	})
	if err != nil {
		return "", err
	}
	if result.Error.Message != "" {
		return "", errors.New(result.Error.Message)
	}
	return result.SecureURL, nil
}
