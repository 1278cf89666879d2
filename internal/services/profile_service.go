package services

import (
	"context"
	"path"
	"strings"

	"github.com/justsurfingit/career-atlas/internal/docstore"
	"github.com/justsurfingit/career-atlas/internal/dtos"
	"github.com/justsurfingit/career-atlas/internal/models"
	"github.com/justsurfingit/career-atlas/internal/upload"
	"github.com/justsurfingit/career-atlas/internal/validation"
)

// Uploader stores a file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, kind upload.Kind, filename, contentType string, data []byte) (string, error)
}

// ImageCompressor shrinks avatars before upload.
type ImageCompressor interface {
	CompressOrOriginal(ctx context.Context, src []byte, contentType string) ([]byte, string)
}

type ProfileService struct {
	Store      docstore.UserStore
	Uploader   Uploader
	Compressor ImageCompressor
}

func NewProfileService(store docstore.UserStore, uploader Uploader, compressor ImageCompressor) *ProfileService {
	return &ProfileService{Store: store, Uploader: uploader, Compressor: compressor}
}

// Get merges the identity with whatever the user stored in their profile.
// Stored values win over identity defaults.
func (s *ProfileService) Get(ctx context.Context, user *models.User) (dtos.ProfileResponse, error) {
	resp := dtos.ProfileResponse{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Phone:       user.Phone,
	}
	profile, ok, err := s.Store.GetProfile(ctx, user.UID)
	if err != nil {
		return dtos.ProfileResponse{}, storeErr("get profile", err)
	}
	if !ok {
		return resp, nil
	}
	if profile.DisplayName != "" {
		resp.DisplayName = profile.DisplayName
	}
	if profile.PhotoURL != "" {
		resp.PhotoURL = profile.PhotoURL
	}
	if profile.Phone != "" {
		resp.Phone = profile.Phone
	}
	resp.ResumeURL = profile.ResumeURL
	resp.ResumeName = profile.ResumeName
	return resp, nil
}

// Update applies a PATCH of display name and/or phone.
func (s *ProfileService) Update(ctx context.Context, user *models.User, req dtos.ProfileUpdateRequest) (dtos.ProfileResponse, error) {
	current, err := s.Get(ctx, user)
	if err != nil {
		return dtos.ProfileResponse{}, err
	}

	var patch models.ProfilePatch
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return dtos.ProfileResponse{}, invalid("displayName", "must not be empty")
		}
		if name != current.DisplayName {
			patch.DisplayName = &name
		}
	}
	if req.Phone != nil {
		phone, err := validation.NormalizePhone(*req.Phone)
		if err != nil {
			return dtos.ProfileResponse{}, invalid("phone", err.Error())
		}
		if phone != current.Phone {
			patch.Phone = &phone
		}
	}

	if patch.Empty() {
		return current, nil
	}
	if err := s.Store.MergeProfile(ctx, user.UID, patch); err != nil {
		return dtos.ProfileResponse{}, storeErr("update profile", err)
	}
	return s.Get(ctx, user)
}

func (s *ProfileService) UpdateDisplayName(ctx context.Context, user *models.User, name string) (dtos.ProfileResponse, error) {
	return s.Update(ctx, user, dtos.ProfileUpdateRequest{DisplayName: &name})
}

func (s *ProfileService) UpdatePhone(ctx context.Context, user *models.User, phone string) (dtos.ProfileResponse, error) {
	return s.Update(ctx, user, dtos.ProfileUpdateRequest{Phone: &phone})
}

// UploadAvatar validates, compresses and uploads a new profile photo.
func (s *ProfileService) UploadAvatar(ctx context.Context, user *models.User, filename string, data []byte) (dtos.ProfileResponse, error) {
	contentType, err := validation.CheckFile(data, validation.AvatarRule)
	if err != nil {
		return dtos.ProfileResponse{}, invalid("avatar", err.Error())
	}

	if s.Compressor != nil {
		data, contentType = s.Compressor.CompressOrOriginal(ctx, data, contentType)
		if contentType == "image/jpeg" {
			filename = strings.TrimSuffix(filename, path.Ext(filename)) + ".jpg"
		}
	}

	url, err := s.Uploader.Upload(ctx, upload.KindAvatar, filename, contentType, data)
	if err != nil {
		return dtos.ProfileResponse{}, err
	}
	if err := s.Store.MergeProfile(ctx, user.UID, models.ProfilePatch{PhotoURL: &url}); err != nil {
		return dtos.ProfileResponse{}, storeErr("save avatar", err)
	}
	return s.Get(ctx, user)
}

// UploadResume uploads a PDF resume and remembers its original file name.
func (s *ProfileService) UploadResume(ctx context.Context, user *models.User, filename string, data []byte) (dtos.ProfileResponse, error) {
	contentType, err := validation.CheckFile(data, validation.ResumeRule)
	if err != nil {
		return dtos.ProfileResponse{}, invalid("resume", err.Error())
	}

	url, err := s.Uploader.Upload(ctx, upload.KindResume, filename, contentType, data)
	if err != nil {
		return dtos.ProfileResponse{}, err
	}
	name := path.Base(filename)
	if err := s.Store.MergeProfile(ctx, user.UID, models.ProfilePatch{ResumeURL: &url, ResumeName: &name}); err != nil {
		return dtos.ProfileResponse{}, storeErr("save resume", err)
	}
	return s.Get(ctx, user)
}
