package cmd

import (
	"fmt"
	"os"

	"github.com/paulobunga/parkman/config"
	"github.com/paulobunga/parkman/generator"
	"github.com/paulobunga/parkman/stub"
	"github.com/spf13/cobra"
)

var publishStubs bool

func init() {
	initCmd.Flags().BoolVar(&publishStubs, "stubs", false, "Also copy the built-in stubs to ./stubs for customisation")
}

const starterSchema = `// Models become tables, Eloquent models and scaffolding.
// Run 'parkman generate all' after editing.

enum Role {
  ADMIN
  MEMBER
}

model User {
  id        Int      @id @default(autoincrement())
  email     String   @unique
  name      String?
  role      Role     @default(MEMBER)
  createdAt DateTime @default(now())
  updatedAt DateTime @updatedAt
  posts     Post[]
}

model Post {
  id        Int      @id @default(autoincrement())
  title     String
  body      String?
  published Boolean  @default(false)
  authorId  Int
  author    User     @relation(fields: [authorId], references: [id], onDelete: Cascade)

  @@index([authorId])
}
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a starter schema.prisma and parkman.yaml",
	Long: `Create a starter schema.prisma and a parkman.yaml holding the default
output paths and namespaces. Existing files are left alone.

Examples:
  parkman init            # schema.prisma + parkman.yaml
  parkman init --stubs    # also publish the stubs to ./stubs
`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Default()

		if _, err := os.Stat(cfg.Schema); err == nil {
			fmt.Printf("⚠️  %s already exists, skipping\n", cfg.Schema)
		} else {
			if err := os.WriteFile(cfg.Schema, []byte(starterSchema), 0644); err != nil {
				fmt.Printf("❌ Error creating %s: %v\n", cfg.Schema, err)
				os.Exit(1)
			}
			fmt.Printf("✅ Created %s\n", cfg.Schema)
		}

		if publishStubs {
			cfg.Stubs = "stubs"
		}

		if _, err := os.Stat(configFile); err == nil {
			fmt.Printf("⚠️  %s already exists, skipping\n", configFile)
		} else {
			data, err := config.Marshal(cfg)
			if err != nil {
				fmt.Println("❌ Encoding configuration:", err)
				os.Exit(1)
			}
			if err := os.WriteFile(configFile, data, 0644); err != nil {
				fmt.Printf("❌ Error creating %s: %v\n", configFile, err)
				os.Exit(1)
			}
			fmt.Printf("✅ Created %s\n", configFile)
		}

		if publishStubs {
			written, err := stub.Publish(cfg.Stubs, generator.DiskSink{})
			if err != nil {
				fmt.Println("❌ Publishing stubs:", err)
				os.Exit(1)
			}
			fmt.Printf("✅ Published %d stubs to %s/\n", len(written), cfg.Stubs)
		}

		fmt.Println("📝 Edit schema.prisma to describe your models")
		fmt.Println("🚀 Run 'parkman generate all' to create the Laravel files")
	},
}
