package maven

import "testing"

const samplePOM = `<?xml version="1.0"?>
<project>
  <parent>
    <groupId>org.example</groupId>
    <artifactId>parent</artifactId>
    <version>3.0.0</version>
  </parent>
  <artifactId>mylib</artifactId>
  <properties>
    <guava.version>31.0-jre</guava.version>
    <project.build.sourceEncoding>UTF-8</project.build.sourceEncoding>
  </properties>
  <dependencies>
    <dependency>
      <groupId>com.google.guava</groupId>
      <artifactId>guava</artifactId>
      <version>${guava.version}</version>
    </dependency>
    <dependency>
      <groupId>junit</groupId>
      <artifactId>junit</artifactId>
      <version>4.13.2</version>
      <scope>test</scope>
    </dependency>
    <dependency>
      <groupId>${project.groupId}</groupId>
      <artifactId>sibling</artifactId>
      <version>${project.version}</version>
    </dependency>
    <dependency>
      <groupId>org.slf4j</groupId>
      <artifactId>slf4j-api</artifactId>
    </dependency>
  </dependencies>
  <build>
    <plugins>
      <plugin>
        <artifactId>maven-compiler-plugin</artifactId>
        <version>3.11.0</version>
      </plugin>
    </plugins>
  </build>
</project>`

func TestParsePOM(t *testing.T) {
	pom, err := ParsePOM([]byte(samplePOM))
	if err != nil {
		t.Fatalf("ParsePOM failed: %v", err)
	}
	if pom.Properties["guava.version"] != "31.0-jre" {
		t.Errorf("guava.version = %q", pom.Properties["guava.version"])
	}

	deps := pom.Declared()
	if len(deps) != 3 {
		t.Fatalf("expected 3 declared deps, got %d: %+v", len(deps), deps)
	}
	if deps[0].Coordinate() != "com.google.guava:guava" || pom.Resolve(deps[0].Version) != "31.0-jre" {
		t.Errorf("deps[0] = %+v", deps[0])
	}
	if deps[1].Coordinate() != "org.example:sibling" || pom.Resolve(deps[1].Version) != "3.0.0" {
		t.Errorf("deps[1] = %+v", deps[1])
	}
	if deps[2].Coordinate() != "org.apache.maven.plugins:maven-compiler-plugin" {
		t.Errorf("deps[2] = %+v", deps[2])
	}
}

func TestProperty(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"${guava.version}", "guava.version", true},
		{" ${x} ", "x", true},
		{"1.0-${suffix}", "", false},
		{"1.0.0", "", false},
	}
	for _, tt := range tests {
		got, ok := Property(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Property(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestResolveUnknown(t *testing.T) {
	pom := &POM{}
	if got := pom.Resolve("${unknown}"); got != "${unknown}" {
		t.Errorf("Resolve() = %q, want reference unchanged", got)
	}
}
