package ledger

// MetadataEntity is the file-level record, written once after every chunk
// of the upload has landed. Its presence is the proof of completeness that
// readers rely on.
type MetadataEntity struct {
	MediaID         string `json:"media_id" gorm:"column:media_id;size:64;primaryKey"`
	Filename        string `json:"filename" gorm:"column:filename"`
	ContentType     string `json:"content_type" gorm:"column:content_type;size:64"`
	FileSize        int64  `json:"file_size" gorm:"column:file_size"`
	ChunkCount      int    `json:"chunk_count" gorm:"column:chunk_count"`
	Checksum        string `json:"checksum" gorm:"column:checksum;size:64"`
	ExpirationBlock int64  `json:"expiration_block" gorm:"column:expiration_block;index"`
	TTLDays         int    `json:"ttl_days" gorm:"column:ttl_days"`
}

func (MetadataEntity) TableName() string {
	return "media_metadata"
}

// ChunkEntity is one contiguous slice of an uploaded file. For a given
// media id the stored chunk indexes are exactly 0..chunk_count-1; a gap
// makes the media unretrievable.
type ChunkEntity struct {
	MediaID         string `json:"media_id" gorm:"column:media_id;size:64;primaryKey"`
	ChunkIndex      int    `json:"chunk_index" gorm:"column:chunk_index;primaryKey;autoIncrement:false"`
	Data            []byte `json:"data" gorm:"column:data"`
	Checksum        string `json:"checksum" gorm:"column:checksum;size:64"`
	ExpirationBlock int64  `json:"expiration_block" gorm:"column:expiration_block;index"`
}

func (ChunkEntity) TableName() string {
	return "media_chunks"
}
