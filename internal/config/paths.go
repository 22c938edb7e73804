package config

// CategoryName identifies one asset category of the Path Table.
type CategoryName string

const (
	CategoryMarkup       CategoryName = "markup"
	CategoryStyles       CategoryName = "styles"
	CategoryScripts      CategoryName = "scripts"
	CategoryImages       CategoryName = "images"
	CategorySprites      CategoryName = "sprites"
	CategoryVectors      CategoryName = "vectors"
	CategoryVectorSprite CategoryName = "vectorsprite"
	CategoryFonts        CategoryName = "fonts"
	CategoryOutlines     CategoryName = "outlines"
)

// AllCategories returns every category in Path Table order.
func AllCategories() []CategoryName {
	return []CategoryName{
		CategoryMarkup, CategoryStyles, CategoryScripts, CategoryImages, CategorySprites,
		CategoryVectors, CategoryVectorSprite, CategoryFonts, CategoryOutlines,
	}
}

// Category is one Path Table entry: where a stage reads from, where it writes,
// and which globs trigger it in watch mode.
type Category struct {
	Sources []string `yaml:"sources"`
	Dest    string   `yaml:"dest"`
	Watch   []string `yaml:"watch,omitempty"`
}

// PathTable maps asset categories to their globs and destination directory.
type PathTable map[CategoryName]Category

// DefaultPathTable returns the stock project layout (src/ -> build/).
func DefaultPathTable() PathTable {
	return PathTable{
		CategoryMarkup: {
			Sources: []string{"src/index.html"},
			Dest:    "build/",
			Watch:   []string{"src/*.html", "src/tpl/**/*.*"},
		},
		CategoryStyles: {
			Sources: []string{"src/style/variables/*.scss", "src/style/lib/*.*", "src/tpl/**/*.scss"},
			Dest:    "build/assets/style/",
			Watch:   []string{"src/**/*.*"},
		},
		CategoryScripts: {
			Sources: []string{"src/js/jquery/*.js", "src/js/libjs/*.js", "src/js/myjs/*.js"},
			Dest:    "build/assets/js/",
			Watch:   []string{"src/js/**/*.*"},
		},
		CategoryImages: {
			Sources: []string{"src/img/**/*.*"},
			Dest:    "build/assets/img/",
			Watch:   []string{"src/img/**/*.*"},
		},
		CategorySprites: {
			Sources: []string{"src/img/sprite/*.png"},
			Dest:    "src/",
		},
		CategoryVectors: {
			Sources: []string{"src/svg/*.svg"},
			Dest:    "build/assets/svg/",
			Watch:   []string{"src/svg/**/*.*"},
		},
		CategoryVectorSprite: {
			Sources: []string{"src/svg/sprite/*.svg"},
			Dest:    "build/assets/svg/sprite/",
		},
		CategoryFonts: {
			Sources: []string{"src/fonts/*.ttf"},
			Dest:    "build/assets/fonts/",
		},
		CategoryOutlines: {
			Sources: []string{"src/fonts/*.otf"},
			Dest:    "src/fonts/",
		},
	}
}

// Get returns the entry for a category.
func (t PathTable) Get(name CategoryName) (Category, bool) {
	c, ok := t[name]
	return c, ok
}

func (c Category) clone() Category {
	return Category{
		Sources: append([]string(nil), c.Sources...),
		Dest:    c.Dest,
		Watch:   append([]string(nil), c.Watch...),
	}
}
