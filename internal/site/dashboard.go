package site

// File is a recent upload shown on the dashboard.
type File struct {
	Name       string
	Size       string
	Source     string
	UploadedAt string
}

// ConnectedApp is an app syncing into the user's box.
type ConnectedApp struct {
	Icon       string
	Name       string
	Status     string
	FilesCount int
}

// StorageSlice is one file type's share of used storage.
type StorageSlice struct {
	Type   string
	SizeGB float64
}

// Dashboard is the signed-in overview. Storage figures are placeholders until
// file sync lands.
type Dashboard struct {
	StorageUsed    float64
	StorageTotal   float64
	StoragePercent int
	Breakdown      []StorageSlice
	Files          []File
	Apps           []ConnectedApp
}

func sampleDashboard() Dashboard {
	d := Dashboard{
		StorageUsed:  24.5,
		StorageTotal: 100,
		Breakdown: []StorageSlice{
			{Type: "3D Models", SizeGB: 12.4},
			{Type: "Images", SizeGB: 6.8},
			{Type: "Videos", SizeGB: 3.2},
			{Type: "Documents", SizeGB: 2.1},
		},
		Files: []File{
			{Name: "character_hero_v2.glb", Size: "45.2 MB", Source: "3DGENI", UploadedAt: "2 hours ago"},
			{Name: "ai_portrait_final.png", Size: "8.4 MB", Source: "AI Photoshoot", UploadedAt: "5 hours ago"},
			{Name: "legend_warrior.fbx", Size: "62.1 MB", Source: "Little Legends", UploadedAt: "Yesterday"},
			{Name: "texture_pack.zip", Size: "128.5 MB", Source: "Manual Upload", UploadedAt: "2 days ago"},
			{Name: "promo_video.mp4", Size: "256.8 MB", Source: "Manual Upload", UploadedAt: "3 days ago"},
		},
		Apps: []ConnectedApp{
			{Icon: "🎮", Name: "3DGENI", Status: "connected", FilesCount: 47},
			{Icon: "📸", Name: "AI Photoshoot", Status: "connected", FilesCount: 23},
			{Icon: "⚔️", Name: "Little Legends", Status: "pending"},
		},
	}
	if d.StorageTotal > 0 {
		d.StoragePercent = int(d.StorageUsed / d.StorageTotal * 100)
	}
	return d
}
