// tasks/directory.go
package tasks

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"itin/models"
)

// DirectoryUser is one account as reported by the corporate directory.
type DirectoryUser struct {
	Email     string
	FirstName string
	LastName  string
	Active    bool
}

// DirectoryDevice is one managed device as reported by the directory.
type DirectoryDevice struct {
	SerialNumber string
	Name         string
	Manufacturer string
	Model        string
	LastSeen     time.Time
	Attributes   map[string]interface{}
}

// DirectoryClient fetches accounts and devices from the corporate directory.
type DirectoryClient interface {
	Users() ([]DirectoryUser, error)
	Devices() ([]DirectoryDevice, error)
}

var directoryClient DirectoryClient

// SetDirectoryClient wires the client used by the directory sync tasks.
func SetDirectoryClient(client DirectoryClient) {
	directoryClient = client
}

const (
	TaskSyncUsers   = "directory.sync_users"
	TaskSyncDevices = "directory.sync_devices"
)

func init() {
	RegisterTask(TaskSyncUsers, "Create or update users from the corporate directory", SyncUsers)
	RegisterTask(TaskSyncDevices, "Upsert computer assets from the corporate directory", SyncDevices)
}

// SyncUsers creates or updates users keyed by their lowercased email.
// Accounts missing from the directory are left untouched.
func SyncUsers(db *gorm.DB, logger *log.Logger) (map[string]interface{}, error) {
	if directoryClient == nil {
		return nil, errors.New("no directory client configured")
	}
	entries, err := directoryClient.Users()
	if err != nil {
		return nil, err
	}

	created, updated, skipped := 0, 0, 0
	for _, entry := range entries {
		email, err := models.NormalizeEmail(entry.Email)
		if err != nil {
			logger.Printf("skipping directory user with empty email")
			skipped++
			continue
		}

		var user models.User
		err = db.Where("email = ?", email).First(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{
				Email:     email,
				FirstName: entry.FirstName,
				LastName:  entry.LastName,
				IsActive:  entry.Active,
			}
			if err := db.Create(&user).Error; err != nil {
				return nil, err
			}
			if !entry.Active {
				// the column default is active, write the flag explicitly
				if err := db.Model(&user).Update("is_active", false).Error; err != nil {
					return nil, err
				}
			}
			logger.Printf("created user %s", email)
			created++
		case err != nil:
			return nil, err
		default:
			user.FirstName = entry.FirstName
			user.LastName = entry.LastName
			user.IsActive = entry.Active
			if err := db.Save(&user).Error; err != nil {
				return nil, err
			}
			updated++
		}
	}

	logger.Printf("user sync done: %d created, %d updated, %d skipped", created, updated, skipped)
	return map[string]interface{}{
		"created": created,
		"updated": updated,
		"skipped": skipped,
	}, nil
}

// SyncDevices upserts computer assets keyed by serial number, refreshing
// last-seen timestamps and directory attributes.
func SyncDevices(db *gorm.DB, logger *log.Logger) (map[string]interface{}, error) {
	if directoryClient == nil {
		return nil, errors.New("no directory client configured")
	}
	entries, err := directoryClient.Devices()
	if err != nil {
		return nil, err
	}

	created, updated, skipped := 0, 0, 0
	for _, entry := range entries {
		if entry.SerialNumber == "" {
			logger.Printf("skipping directory device with empty serial number")
			skipped++
			continue
		}

		var metadata datatypes.JSON
		if len(entry.Attributes) > 0 {
			if data, err := json.Marshal(entry.Attributes); err == nil {
				metadata = datatypes.JSON(data)
			}
		}
		lastSeen := entry.LastSeen
		if lastSeen.IsZero() {
			lastSeen = time.Now()
		}

		var asset models.Asset
		err = db.Where("serial_number = ?", entry.SerialNumber).First(&asset).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			asset = models.Asset{
				Name:         entry.Name,
				AssetType:    models.AssetTypeComputer,
				SerialNumber: entry.SerialNumber,
				Manufacturer: entry.Manufacturer,
				Model:        entry.Model,
				Status:       models.AssetActive,
				Metadata:     metadata,
				LastSeen:     &lastSeen,
			}
			if err := asset.Validate(); err != nil {
				return nil, err
			}
			if err := db.Create(&asset).Error; err != nil {
				return nil, err
			}
			logger.Printf("created asset %s (serial %s)", asset.Name, asset.SerialNumber)
			created++
		case err != nil:
			return nil, err
		default:
			if entry.Name != "" {
				asset.Name = entry.Name
			}
			if entry.Manufacturer != "" {
				asset.Manufacturer = entry.Manufacturer
			}
			if entry.Model != "" {
				asset.Model = entry.Model
			}
			if metadata != nil {
				asset.Metadata = metadata
			}
			asset.LastSeen = &lastSeen
			if err := db.Omit("Groups", "Owner", "Location").Save(&asset).Error; err != nil {
				return nil, err
			}
			updated++
		}
	}

	logger.Printf("device sync done: %d created, %d updated, %d skipped", created, updated, skipped)
	return map[string]interface{}{
		"created": created,
		"updated": updated,
		"skipped": skipped,
	}, nil
}
