package site

// App is an integration listed in the catalog.
type App struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    string
}

var catalog = []App{
	{ID: "3dgeni", Name: "3DGENI", Description: "Connect to 3DGENI for advanced 3D modeling and rendering", Icon: "🎨", Category: "3D & Design"},
	{ID: "autocad", Name: "AutoCAD", Description: "Integrate with AutoCAD for CAD file management", Icon: "📐", Category: "CAD Software"},
	{ID: "ai-photoshoot", Name: "AI Photoshoot", Description: "Generate professional AI-powered photoshoots for products, models, and virtual scenes using advanced machine learning algorithms", Icon: "📸", Category: "AI Tools"},
	{ID: "little-legends", Name: "Little Legends", Description: "Connect to Little Legends for interactive storytelling and educational gaming experiences tailored for children", Icon: "🎮", Category: "Gaming & Education"},
}

// Catalog returns a copy of the integration catalog.
func Catalog() []App {
	return append([]App(nil), catalog...)
}

// FindApp looks up an integration by id.
func FindApp(id string) (App, bool) {
	for _, app := range catalog {
		if app.ID == id {
			return app, true
		}
	}
	return App{}, false
}
